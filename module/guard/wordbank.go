package guard

import (
	"context"
	"strings"

	"QGuard/module/guard/model"
)

// tryReply 词库应答：精确表直查优先，没中再按加入顺序扫模糊表，
// 取第一个是子串的键，不做最长匹配。都没中就什么都不发。
func (e *Engine) tryReply(ctx context.Context, ev *model.GroupMessageEvent, group, raw string) {
	wb := e.loadWords(ctx)[group]
	if wb == nil {
		return
	}

	if a, ok := wb.Exact[raw]; ok {
		e.withdraw.Send(ctx, ev.GroupID, a)
		return
	}

	for _, qa := range wb.Fuzzy {
		if qa.Q == "" {
			continue
		}
		if strings.Contains(raw, qa.Q) {
			e.withdraw.Send(ctx, ev.GroupID, qa.A)
			return
		}
	}
}
