package guard

import (
	"context"

	"QGuard/logger"
	"QGuard/module/guard/model"
)

// moderate 风控，只对非管理员且已过门禁的消息生效。
// 图片撤回和刷屏检测互相独立，同一条消息可能都命中；
// 撤回是幂等动作，重复撤回只会留下一条软失败日志。
func (e *Engine) moderate(ctx context.Context, ev *model.GroupMessageEvent, group, raw string) {
	cfg := e.loadConfigs(ctx).Get(group)

	if cfg.QRRecall && ev.HasImage() {
		if err := e.conn.DeleteMsg(ctx, ev.MessageID); err != nil {
			logger.Infof("[guard] qr recall delete failed: group=%s msg=%d err=%v", group, ev.MessageID, err)
		}
	}

	if cfg.AntispamActive {
		streak := e.spam.Track(group, ev.UserID, Normalize(raw))
		limit := cfg.RepeatLimit
		if limit < 1 {
			limit = 1
		}
		if streak >= limit {
			if err := e.conn.DeleteMsg(ctx, ev.MessageID); err != nil {
				logger.Infof("[guard] antispam delete failed: group=%s msg=%d err=%v", group, ev.MessageID, err)
			}
		}
	}
}
