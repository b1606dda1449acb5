package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "QGuard/middleware/security"
)

// RouteOpt 配置选项
type RouteOpt struct {
	IsAuth bool
	Secret []byte
}

// GET 封装：按需挂上 JWT 校验
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(midsec.DefaultOptions(opt.Secret)), handler)
	} else {
		r.GET(path, handler)
	}
}

// POST 封装
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(midsec.DefaultOptions(opt.Secret)), handler)
	} else {
		r.POST(path, handler)
	}
}
