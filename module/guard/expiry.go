package guard

import (
	"context"
	"strconv"
	"time"

	"QGuard/logger"
	"QGuard/module/guard/model"
)

const (
	expiryTick = time.Hour
	// 预警窗口：到期前 (23h, 24h) 开区间。窗口宽度等于扫描周期，
	// 进程连续运行时每个群恰好命中一次；tick 被拖过窗口就直接错过，
	// 不补发，也没有“已提醒”标记。
	warnAfterSec  = 23 * 3600
	warnBeforeSec = 24 * 3600
)

// RunExpiryWatcher 每小时扫一遍授权表，给快到期的群发预警。
// 独立于消息处理运行，发送失败只记日志。
func (e *Engine) RunExpiryWatcher(ctx context.Context) {
	ticker := time.NewTicker(expiryTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.scanExpiry(ctx)
		}
	}
}

func (e *Engine) scanExpiry(ctx context.Context) {
	now := e.now().Unix()
	auth := loadTable(ctx, e.store, model.TableAuthorization, func() model.AuthTable { return model.AuthTable{} })

	for group, expire := range auth {
		left := expire - now
		if left <= warnAfterSec || left >= warnBeforeSec {
			continue
		}
		gid, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			continue
		}
		text := "⏰ 本群授权将于 " + time.Unix(expire, 0).Format(timeLayout) + " 到期，请及时续期"
		if _, err := e.conn.SendGroupMsg(ctx, gid, text); err != nil {
			logger.Warnf("[expiry] warn send failed: group=%s err=%v", group, err)
		}
	}
}
