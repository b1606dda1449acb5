package model

// OneBot v11 群事件的类型化表示。
// 网关在边界处把动态 JSON 解析成这两个变体，解析失败直接丢弃。

// 角色（OneBot sender.role）
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// 消息段类型
const (
	SegmentText  = "text"
	SegmentImage = "image"
)

// Segment 消息内容段（text / image / at / ...），只关心 type，
// data 原样透传给需要的人。
type Segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Sender 发送者信息
type Sender struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname,omitempty"`
	Role     string `json:"role,omitempty"` // owner / admin / member
}

// GroupMessageEvent 群消息事件
type GroupMessageEvent struct {
	GroupID    int64     `json:"group_id"`
	UserID     int64     `json:"user_id"`
	MessageID  int64     `json:"message_id"`
	RawMessage string    `json:"raw_message"`
	Sender     Sender    `json:"sender"`
	Message    []Segment `json:"message,omitempty"`
}

// IsAdmin 群管或群主
func (e *GroupMessageEvent) IsAdmin() bool {
	return e.Sender.Role == RoleAdmin || e.Sender.Role == RoleOwner
}

// HasImage 是否包含图片段
func (e *GroupMessageEvent) HasImage() bool {
	for _, seg := range e.Message {
		if seg.Type == SegmentImage {
			return true
		}
	}
	return false
}

// JoinRequestEvent 入群申请事件
type JoinRequestEvent struct {
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
	Flag    string `json:"flag"`     // 审批用的不透明标识
	SubType string `json:"sub_type"` // add / invite
	Comment string `json:"comment,omitempty"`
}
