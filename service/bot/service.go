package bot

import (
	"encoding/json"

	"golang.org/x/net/context"

	"QGuard/global"
	"QGuard/logger"
	"QGuard/module/guard"
	"QGuard/module/guard/model"
	"QGuard/service/natsx"
)

// Service 核心侧：订阅事件主题，喂给 guard 引擎。
// 同队列组多实例时事件抢占消费。
type Service struct {
	bus *natsx.NatsManager
	eng *guard.Engine
}

func NewService(bus *natsx.NatsManager, eng *guard.Engine) *Service {
	return &Service{bus: bus, eng: eng}
}

func (s *Service) Start() error {
	if err := s.bus.Subscribe(global.BizEventMessage, s.onMessage); err != nil {
		return err
	}
	return s.bus.Subscribe(global.BizEventRequest, s.onRequest)
}

func (s *Service) onMessage(ctx context.Context, msg natsx.NatsxMessage) error {
	var ev model.GroupMessageEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Warnf("[bot] drop malformed message event: %v", err)
		return nil
	}
	s.eng.OnGroupMessage(ctx, &ev)
	return nil
}

func (s *Service) onRequest(ctx context.Context, msg natsx.NatsxMessage) error {
	var ev model.JoinRequestEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Warnf("[bot] drop malformed request event: %v", err)
		return nil
	}
	s.eng.OnJoinRequest(ctx, &ev)
	return nil
}
