package guard

import (
	"context"
	"sync"
	"time"

	"QGuard/logger"
	"QGuard/tools/safe"
)

const defaultWithdrawDelay = 60 * time.Second

// Withdrawer 发送后定时撤回。定时器按 message_id 登记，
// 留了 Cancel 这个口子（比如群在触发前被取消授权），目前没人调。
type Withdrawer struct {
	conn  Connector
	delay time.Duration

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func NewWithdrawer(conn Connector, delay time.Duration) *Withdrawer {
	if delay <= 0 {
		delay = defaultWithdrawDelay
	}
	return &Withdrawer{
		conn:   conn,
		delay:  delay,
		timers: make(map[int64]*time.Timer),
	}
}

// Send 发消息；只有拿到 message_id 才会排撤回。
// 发送和撤回的失败都不向上传，只记日志。
func (w *Withdrawer) Send(ctx context.Context, groupID int64, text string) {
	msgID, err := w.conn.SendGroupMsg(ctx, groupID, text)
	if err != nil {
		logger.Warnf("[withdraw] send failed: group=%d err=%v", groupID, err)
		return
	}
	if msgID == 0 {
		return
	}

	w.mu.Lock()
	w.timers[msgID] = time.AfterFunc(w.delay, func() {
		defer safe.Recover("withdraw.timer")
		w.mu.Lock()
		delete(w.timers, msgID)
		w.mu.Unlock()
		if err := w.conn.DeleteMsg(context.Background(), msgID); err != nil {
			logger.Infof("[withdraw] delete failed (probably already gone): msg=%d err=%v", msgID, err)
		}
	})
	w.mu.Unlock()
}

// Cancel 撤销一个还没触发的撤回定时器。
func (w *Withdrawer) Cancel(msgID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.timers[msgID]
	if !ok {
		return false
	}
	delete(w.timers, msgID)
	return t.Stop()
}

// Pending 当前在途的撤回数，状态接口用。
func (w *Withdrawer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}
