package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CodeError 带业务码的错误，HTTP 接口统一返回这个结构。
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%d] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Msg, e.Detail)
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// WrapMsg 附加说明并带上堆栈。kv 成对出现（key1, val1, key2, val2 ...）。
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	c := e.WithDetail(toString(msg, kv))
	return errors.WithStack(c)
}

// ---- 包级别快捷方法 ----

func New(msg string, kv ...any) error {
	return errors.New(toString(msg, kv))
}

func Wrap(err error) error {
	return errors.WithStack(err)
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, toString(msg, kv))
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		var k, v any = kv[i], "missing"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		sb.WriteString(fmt.Sprintf(" %v=%v", k, v))
	}
	return sb.String()
}
