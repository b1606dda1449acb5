package bot

import (
	"context"
	"encoding/json"

	"QGuard/global"
	"QGuard/service/natsx"
	"QGuard/tools/errs"
)

// 总线上的动作负载
type SendReq struct {
	GroupID int64  `json:"group_id"`
	Text    string `json:"text"`
}

type SendResp struct {
	MessageID int64 `json:"message_id"`
}

type DeleteReq struct {
	MessageID int64 `json:"message_id"`
}

type ReviewReq struct {
	Flag    string `json:"flag"`
	SubType string `json:"sub_type"`
	Approve bool   `json:"approve"`
}

// BusConnector guard.Connector 的总线实现：动作发给网关执行。
// 发消息走请求-应答以拿回 message_id，其余 fire-and-forget。
type BusConnector struct {
	bus *natsx.NatsManager
}

func NewBusConnector(bus *natsx.NatsManager) *BusConnector {
	return &BusConnector{bus: bus}
}

func (c *BusConnector) SendGroupMsg(ctx context.Context, groupID int64, text string) (int64, error) {
	data, err := json.Marshal(SendReq{GroupID: groupID, Text: text})
	if err != nil {
		return 0, errs.Wrap(err)
	}
	resp, err := c.bus.Request(ctx, global.BizActionSend, data, nil)
	if err != nil {
		return 0, errs.WrapMsg(err, "send_group_msg request", "group", groupID)
	}
	var out SendResp
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return 0, errs.WrapMsg(err, "send_group_msg response", "group", groupID)
	}
	return out.MessageID, nil
}

func (c *BusConnector) DeleteMsg(ctx context.Context, messageID int64) error {
	data, err := json.Marshal(DeleteReq{MessageID: messageID})
	if err != nil {
		return errs.Wrap(err)
	}
	return c.bus.Publish(ctx, global.BizActionDelete, data, nil)
}

func (c *BusConnector) SetGroupAddRequest(ctx context.Context, flag, subType string, approve bool) error {
	data, err := json.Marshal(ReviewReq{Flag: flag, SubType: subType, Approve: approve})
	if err != nil {
		return errs.Wrap(err)
	}
	return c.bus.Publish(ctx, global.BizActionReview, data, nil)
}
