package guard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"QGuard/logger"
	"QGuard/module/guard/model"
)

// 命令前缀（固定集合，按 A -> B -> C -> D 顺序匹配）
const (
	cmdGrant     = "授权"
	cmdConfigure = "设置"
	prefixExact  = "精确问"
	prefixFuzzy  = "模糊问"
	sepAnswer    = "答"
	cmdMenu      = "菜单"
	cmdHelp      = "帮助"
)

// 设置命令的键
const (
	keyQRRecall    = "二维码"
	keyRepeatLimit = "刷屏次数"
	keyAutoJoin    = "自动入群"
	valOn          = "开"
)

const timeLayout = "2006-01-02 15:04:05"

// tryGrant A. 授权 <群号> <天数>
// 只有超级用户会走到这里；天数不是数字就当没看见，落回后续流程。
func (e *Engine) tryGrant(ctx context.Context, ev *model.GroupMessageEvent, raw string, now time.Time) bool {
	fields := strings.Fields(raw)
	if len(fields) != 3 || fields[0] != cmdGrant {
		return false
	}
	days, err := strconv.Atoi(fields[2])
	if err != nil {
		return false
	}
	target := fields[1]
	expire := now.Unix() + int64(days)*86400

	e.updateAuth(ctx, func(t model.AuthTable) model.AuthTable {
		t[target] = expire
		return t
	})

	text := fmt.Sprintf("✅ 已授权群 %s %d 天，到期时间：%s",
		target, days, time.Unix(expire, 0).Format(timeLayout))
	if _, err := e.conn.SendGroupMsg(ctx, ev.GroupID, text); err != nil {
		logger.Warnf("[guard] grant confirm send failed: group=%d err=%v", ev.GroupID, err)
	}
	return true
}

// tryConfigure B. 设置 <键> <值>
// 管理员或超级用户，且要求本群已授权。未知键照样保存并确认。
func (e *Engine) tryConfigure(ctx context.Context, ev *model.GroupMessageEvent, group, raw string, now time.Time) bool {
	fields := strings.Fields(raw)
	if len(fields) != 3 || fields[0] != cmdConfigure {
		return false
	}
	if !e.gate.IsAuthorized(ctx, group, now) {
		return false
	}

	key, val := fields[1], fields[2]
	on := val == valOn

	switch key {
	case keyQRRecall:
		e.updateConfigs(ctx, func(t model.ConfigTable) model.ConfigTable {
			c := t.Get(group)
			c.QRRecall = on
			t[group] = c
			return t
		})
	case keyRepeatLimit:
		n, err := strconv.Atoi(val)
		if err != nil {
			return false
		}
		if n < 1 {
			n = 1
		}
		e.updateConfigs(ctx, func(t model.ConfigTable) model.ConfigTable {
			c := t.Get(group)
			c.RepeatLimit = n
			t[group] = c
			return t
		})
	case keyAutoJoin:
		// 全局开关，写 global 键，与当前群无关
		e.updateConfigs(ctx, func(t model.ConfigTable) model.ConfigTable {
			c := t.Get(model.GlobalConfigKey)
			c.AutoJoin = on
			t[model.GlobalConfigKey] = c
			return t
		})
	default:
		// 未知键：不改任何字段，但记录照样落盘
		e.updateConfigs(ctx, func(t model.ConfigTable) model.ConfigTable {
			t[group] = t.Get(group)
			return t
		})
	}

	e.withdraw.Send(ctx, ev.GroupID, fmt.Sprintf("✅ 设置已更新：%s", key))
	return true
}

// tryWordEntry C. 精确问X答Y / 模糊问X答Y
// 去掉前缀后按第一个「答」切分；没有分隔符就落回后续流程。
func (e *Engine) tryWordEntry(ctx context.Context, ev *model.GroupMessageEvent, group, raw string) bool {
	var (
		exact bool
		body  string
	)
	switch {
	case strings.HasPrefix(raw, prefixExact):
		exact, body = true, strings.TrimPrefix(raw, prefixExact)
	case strings.HasPrefix(raw, prefixFuzzy):
		body = strings.TrimPrefix(raw, prefixFuzzy)
	default:
		return false
	}

	q, a, ok := strings.Cut(body, sepAnswer)
	if !ok {
		return false
	}
	q, a = strings.TrimSpace(q), strings.TrimSpace(a)

	e.updateWords(ctx, func(t model.WordTable) model.WordTable {
		wb := t[group]
		if wb == nil {
			wb = model.NewWordBank()
			t[group] = wb
		}
		if exact {
			wb.SetExact(q, a)
		} else {
			wb.SetFuzzy(q, a)
		}
		return t
	})

	e.withdraw.Send(ctx, ev.GroupID, "✅ 词条已收录")
	return true
}

// tryMenu D. 菜单 / 帮助，任何人可用（门禁已过）
func (e *Engine) tryMenu(ctx context.Context, ev *model.GroupMessageEvent, group, raw string, su bool) bool {
	if raw != cmdMenu && raw != cmdHelp {
		return false
	}
	e.withdraw.Send(ctx, ev.GroupID, e.menuText(ctx, group, su))
	return true
}

func (e *Engine) menuText(ctx context.Context, group string, su bool) string {
	var status string
	switch {
	case su:
		status = "无限制"
	default:
		exp := e.gate.ExpireAt(ctx, group)
		if exp > e.now().Unix() {
			status = time.Unix(exp, 0).Format(timeLayout) + " 到期"
		} else {
			status = "未授权"
		}
	}

	var sb strings.Builder
	sb.WriteString("🤖 QGuard 群管机器人\n")
	sb.WriteString("授权状态：" + status + "\n")
	sb.WriteString("—— 命令 ——\n")
	sb.WriteString("设置 二维码 开|关\n")
	sb.WriteString("设置 刷屏次数 <N>\n")
	sb.WriteString("设置 自动入群 开|关\n")
	sb.WriteString("精确问<问题>答<回答>\n")
	sb.WriteString("模糊问<问题>答<回答>\n")
	sb.WriteString("菜单 / 帮助")
	return sb.String()
}
