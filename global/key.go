package global

// 总线路由（biz -> subject），网关和核心两侧共用
const (
	BizEventMessage = "event.message" // 群消息事件
	BizEventRequest = "event.request" // 入群申请事件
	BizActionSend   = "action.send"   // 发群消息（请求-应答，拿回 message_id）
	BizActionDelete = "action.delete" // 撤回消息
	BizActionReview = "action.review" // 审批入群申请
)

const (
	SubjectEventMessage = "qguard.event.message"
	SubjectEventRequest = "qguard.event.request"
	SubjectActionSend   = "qguard.action.send"
	SubjectActionDelete = "qguard.action.delete"
	SubjectActionReview = "qguard.action.review"

	// 核心侧消费事件用的队列组，多实例时同组抢占
	QueueGuardCore = "qguard-core"
)
