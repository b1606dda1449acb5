package natsx

import (
	"context"
	"fmt"
)

// NatsxProducer 生产端
type NatsxProducer struct{ c *NatsxClient }

func NewNatsxProducer(c *NatsxClient) *NatsxProducer { return &NatsxProducer{c: c} }

// Publish 按 Biz 路由发送（fire-and-forget）
func (p *NatsxProducer) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	r, ok := p.c.route(biz)
	if !ok {
		return fmt.Errorf("route not found: %s", biz)
	}
	return p.c.sendCore(r.Subject, data, hdr)
}

// Request 按 Biz 路由做请求-应答（例如发消息要拿回 message_id）
func (p *NatsxProducer) Request(ctx context.Context, biz string, data []byte, hdr map[string]string) (NatsxMessage, error) {
	r, ok := p.c.route(biz)
	if !ok {
		return NatsxMessage{}, fmt.Errorf("route not found: %s", biz)
	}
	resp, err := p.c.request(ctx, r.Subject, data, hdr)
	if err != nil {
		return NatsxMessage{}, err
	}
	return NatsxMessage{
		Subject: resp.Subject,
		Data:    append([]byte(nil), resp.Data...),
		Header:  headerToMap(resp.Header),
	}, nil
}
