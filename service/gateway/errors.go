package gateway

import "QGuard/tools/errs"

var (
	ErrNotConnected  = errs.New("onebot not connected")
	ErrActionTimeout = errs.New("onebot action timed out")
	ErrActionFailed  = errs.New("onebot action failed")
)
