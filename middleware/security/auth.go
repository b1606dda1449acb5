package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	errs "QGuard/tools/errs"
	sec "QGuard/tools/security"
)

// —— context key ——
// 后续 handler 统一用这个 key 读取校验后的 subject
const CtxSubjectKey = "authSubject"

type Options struct {
	Secret []byte
	// 读取哪个请求头，默认 Authorization: Bearer xxx
	HeaderToken string
}

func DefaultOptions(secret []byte) *Options {
	return &Options{Secret: secret, HeaderToken: "Authorization"}
}

// Middleware 校验状态接口的 JWT；失败统一返回 CodeError，不透出内部错误。
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(sec.DefaultOptions(opts.Secret), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}
		if sub, ok := claims["sub"].(string); ok {
			c.Set(CtxSubjectKey, sub)
		}
		c.Next()
	}
}
