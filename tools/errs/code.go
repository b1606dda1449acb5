package errs

// 业务错误码（15xx 鉴权相关，16xx 存储相关）
const (
	CodeTokenExpired  = 1501
	CodeTokenInvalid  = 1502
	CodeStoreFailed   = 1601
	CodeInternalError = 1900
)

var (
	ErrTokenExpired  = NewCodeError(CodeTokenExpired, "token expired")
	ErrTokenInvalid  = NewCodeError(CodeTokenInvalid, "token invalid")
	ErrStoreFailed   = NewCodeError(CodeStoreFailed, "store operation failed")
	ErrInternalError = NewCodeError(CodeInternalError, "internal error")
)
