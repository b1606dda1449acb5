package gateway

import (
	"encoding/json"

	"QGuard/module/guard/model"
	"QGuard/tools/decode"
)

// OneBot v11 动作帧
type ActionFrame struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo,omitempty"`
}

// ActionResponse OneBot 动作应答，按 echo 关联回请求
type ActionResponse struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo"`
}

// IsOK retcode 0 = 成功，1 = async 已受理
func (r *ActionResponse) IsOK() bool {
	return r.RetCode == 0 || r.RetCode == 1
}

func BuildSendGroupMsg(groupID int64, text, echo string) ActionFrame {
	return ActionFrame{
		Action: "send_group_msg",
		Params: map[string]any{"group_id": groupID, "message": text},
		Echo:   echo,
	}
}

func BuildDeleteMsg(messageID int64) ActionFrame {
	return ActionFrame{
		Action: "delete_msg",
		Params: map[string]any{"message_id": messageID},
	}
}

func BuildGroupAddReview(flag, subType string, approve bool) ActionFrame {
	return ActionFrame{
		Action: "set_group_add_request",
		Params: map[string]any{"flag": flag, "sub_type": subType, "approve": approve},
	}
}

// 入站事件的类型化变体（tagged union）。
// 其余 post_type（meta_event / notice / 私聊）一律丢弃。
type EventKind int

const (
	EventIgnored EventKind = iota
	EventGroupMessage
	EventJoinRequest
)

type InboundEvent struct {
	Kind    EventKind
	Message *model.GroupMessageEvent
	Request *model.JoinRequestEvent
}

// ParseEvent 在边界处把动态 JSON 收敛成类型化事件。
// 字段缺失/类型不对按解析失败处理，返回 ok=false，由调用方丢弃。
func ParseEvent(m map[string]any) (*InboundEvent, bool) {
	postType, _ := m["post_type"].(string)

	switch postType {
	case "message":
		if mt, _ := m["message_type"].(string); mt != "group" {
			return &InboundEvent{Kind: EventIgnored}, true
		}
		ev, err := decode.DecodeMap[model.GroupMessageEvent](m)
		if err != nil || ev.GroupID == 0 {
			return nil, false
		}
		return &InboundEvent{Kind: EventGroupMessage, Message: ev}, true

	case "request":
		if rt, _ := m["request_type"].(string); rt != "group" {
			return &InboundEvent{Kind: EventIgnored}, true
		}
		ev, err := decode.DecodeMap[model.JoinRequestEvent](m)
		if err != nil || ev.Flag == "" {
			return nil, false
		}
		return &InboundEvent{Kind: EventJoinRequest, Request: ev}, true

	default:
		// meta_event(心跳/lifecycle)、notice 等
		return &InboundEvent{Kind: EventIgnored}, true
	}
}
