package guard

import (
	"strings"
	"sync"
)

// AntiSpamTracker 刷屏计数，纯内存，进程重启清零。
// 事件处理没有按 (群,人) 串行的保证，所以这里自己加锁。
type AntiSpamTracker struct {
	mu     sync.Mutex
	states map[spamKey]*spamState
}

type spamKey struct {
	group string
	user  int64
}

type spamState struct {
	last   string // 上一条归一化文本
	streak int    // 连续相同计数
}

func NewAntiSpamTracker() *AntiSpamTracker {
	return &AntiSpamTracker{states: make(map[spamKey]*spamState)}
}

// Track 记录一条归一化文本，返回当前连击数。
// 相同且非空 -> 连击 +1；否则重置为 1 并记住新文本。
// 触发删除后连击不清零：同样的刷屏每条都会继续被删。
func (t *AntiSpamTracker) Track(group string, user int64, normalized string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := spamKey{group: group, user: user}
	st, ok := t.states[k]
	if !ok {
		st = &spamState{}
		t.states[k] = st
	}

	if normalized != "" && normalized == st.last {
		st.streak++
	} else {
		st.last = normalized
		st.streak = 1
	}
	return st.streak
}

// Normalize 折叠空白并转小写。
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
