package bot

import (
	"QGuard/global"
	"QGuard/service/natsx"
)

// RegisterRoutes 注册网关和核心共用的总线路由。
func RegisterRoutes(bus *natsx.NatsManager) error {
	routes := []natsx.NatsxRoute{
		{Biz: global.BizEventMessage, Subject: global.SubjectEventMessage, Queue: global.QueueGuardCore},
		{Biz: global.BizEventRequest, Subject: global.SubjectEventRequest, Queue: global.QueueGuardCore},
		{Biz: global.BizActionSend, Subject: global.SubjectActionSend},
		{Biz: global.BizActionDelete, Subject: global.SubjectActionDelete},
		{Biz: global.BizActionReview, Subject: global.SubjectActionReview},
	}
	for _, r := range routes {
		if err := bus.RegisterRoute(r); err != nil {
			return err
		}
	}
	return nil
}
