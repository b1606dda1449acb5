package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"QGuard/module/guard/model"
	"QGuard/module/guard/store"
)

var fixedNow = time.Unix(1_700_000_000, 0)

type sentMsg struct {
	GroupID int64
	Text    string
	ID      int64
}

type review struct {
	Flag    string
	SubType string
	Approve bool
}

// fakeConn 记录所有出站动作
type fakeConn struct {
	mu       sync.Mutex
	nextID   int64
	sent     []sentMsg
	deleted  []int64
	reviews  []review
	failSend bool
}

func (f *fakeConn) SendGroupMsg(_ context.Context, groupID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return 0, fmt.Errorf("send failed")
	}
	f.nextID++
	f.sent = append(f.sent, sentMsg{GroupID: groupID, Text: text, ID: f.nextID})
	return f.nextID, nil
}

func (f *fakeConn) DeleteMsg(_ context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeConn) SetGroupAddRequest(_ context.Context, flag, subType string, approve bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review{Flag: flag, SubType: subType, Approve: approve})
	return nil
}

func (f *fakeConn) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.Text
	}
	return out
}

func (f *fakeConn) deletedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.deleted...)
}

func newTestEngine(t *testing.T) (*Engine, *fakeConn, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	conn := &fakeConn{}
	eng := NewEngine(mem, conn, Options{
		Superusers:    []string{"10001"},
		WithdrawDelay: 10 * time.Millisecond,
		Now:           func() time.Time { return fixedNow },
	})
	return eng, conn, mem
}

func msgEvent(group, user int64, role, raw string) *model.GroupMessageEvent {
	return &model.GroupMessageEvent{
		GroupID:    group,
		UserID:     user,
		MessageID:  user*1000 + group,
		RawMessage: raw,
		Sender:     model.Sender{UserID: user, Role: role},
		Message:    []model.Segment{{Type: model.SegmentText, Data: map[string]any{"text": raw}}},
	}
}

func seedAuth(t *testing.T, mem *store.Memory, auth model.AuthTable) {
	t.Helper()
	doc, err := json.Marshal(auth)
	require.NoError(t, err)
	require.NoError(t, mem.Save(context.Background(), model.TableAuthorization, doc))
}

func loadAuthDoc(t *testing.T, mem *store.Memory) model.AuthTable {
	t.Helper()
	doc, err := mem.Load(context.Background(), model.TableAuthorization)
	require.NoError(t, err)
	out := model.AuthTable{}
	if len(doc) > 0 {
		require.NoError(t, json.Unmarshal(doc, &out))
	}
	return out
}

func loadConfigDoc(t *testing.T, mem *store.Memory) model.ConfigTable {
	t.Helper()
	doc, err := mem.Load(context.Background(), model.TableGroupConfig)
	require.NoError(t, err)
	out := model.ConfigTable{}
	if len(doc) > 0 {
		require.NoError(t, json.Unmarshal(doc, &out))
	}
	return out
}

func TestUnauthorizedGroupIgnored(t *testing.T) {
	eng, conn, _ := newTestEngine(t)

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleMember, "菜单"))

	require.Empty(t, conn.sentTexts())
	require.Empty(t, conn.deletedIDs())
}

func TestGrantSetsExpiry(t *testing.T) {
	eng, conn, mem := newTestEngine(t)

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 10001, model.RoleMember, "授权 1001 7"))

	auth := loadAuthDoc(t, mem)
	require.Equal(t, fixedNow.Unix()+7*86400, auth["1001"])
	require.Len(t, conn.sentTexts(), 1)
	require.Contains(t, conn.sentTexts()[0], "已授权群 1001")

	// 授权确认不走自动撤回
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, conn.deletedIDs())
}

func TestGrantByNonSuperuserIgnored(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "授权 1001 7"))

	auth := loadAuthDoc(t, mem)
	require.Equal(t, fixedNow.Unix()+3600, auth["1001"])
	require.Empty(t, conn.sentTexts())
}

func TestGrantMalformedDaysFallsThrough(t *testing.T) {
	eng, conn, mem := newTestEngine(t)

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 10001, model.RoleMember, "授权 1001 七天"))

	require.Empty(t, loadAuthDoc(t, mem))
	require.Empty(t, conn.sentTexts())
}

func TestMenuAfterGrant(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 604800})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleMember, "菜单"))

	texts := conn.sentTexts()
	require.Len(t, texts, 1)
	expire := time.Unix(fixedNow.Unix()+604800, 0).Format(timeLayout)
	require.Contains(t, texts[0], expire)

	// 菜单走自动撤回
	require.Eventually(t, func() bool {
		return len(conn.deletedIDs()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMenuShowsUnlimitedForSuperuser(t *testing.T) {
	eng, conn, _ := newTestEngine(t)

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 10001, model.RoleMember, "帮助"))

	texts := conn.sentTexts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], "无限制")
}

func TestConfigureQRRecall(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "设置 二维码 开"))

	cfg := loadConfigDoc(t, mem)
	require.True(t, cfg.Get("1001").QRRecall)
	require.Len(t, conn.sentTexts(), 1)
	require.Contains(t, conn.sentTexts()[0], "设置已更新")
}

func TestConfigureRepeatLimit(t *testing.T) {
	eng, _, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "设置 刷屏次数 5"))

	require.Equal(t, 5, loadConfigDoc(t, mem).Get("1001").RepeatLimit)
}

func TestConfigureRepeatLimitMalformedFallsThrough(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "设置 刷屏次数 很多"))

	require.Empty(t, loadConfigDoc(t, mem))
	require.Empty(t, conn.sentTexts())
}

func TestConfigureAutoJoinWritesGlobal(t *testing.T) {
	eng, _, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleOwner, "设置 自动入群 关"))

	cfg := loadConfigDoc(t, mem)
	require.False(t, cfg.Get(model.GlobalConfigKey).AutoJoin)
	_, hasGroupEntry := cfg["1001"]
	require.False(t, hasGroupEntry)
}

func TestConfigureUnknownKeyStillSavesAndConfirms(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "设置 颜色 红"))

	cfg := loadConfigDoc(t, mem)
	entry, ok := cfg["1001"]
	require.True(t, ok, "unknown key must still persist the record")
	require.Equal(t, model.DefaultGroupConfig(), entry)
	require.Len(t, conn.sentTexts(), 1)
	require.Contains(t, conn.sentTexts()[0], "设置已更新")
}

func TestConfigureRequiresAuthorizedGroup(t *testing.T) {
	eng, conn, mem := newTestEngine(t)

	// 超级用户过得了门禁，但设置命令要求群已授权
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 10001, model.RoleMember, "设置 二维码 开"))

	require.Empty(t, loadConfigDoc(t, mem))
	require.Empty(t, conn.sentTexts())
}

func TestConfigureByMemberFallsThrough(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleMember, "设置 二维码 开"))

	require.Empty(t, loadConfigDoc(t, mem))
	require.Empty(t, conn.sentTexts())
}

func TestWordBankExactEntryAndReply(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "精确问你好答你好呀"))
	require.Len(t, conn.sentTexts(), 1)
	require.Contains(t, conn.sentTexts()[0], "词条已收录")

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 30001, model.RoleMember, "你好"))
	texts := conn.sentTexts()
	require.Len(t, texts, 2)
	require.Equal(t, "你好呀", texts[1])
}

func TestWordEntryWithoutSeparatorFallsThrough(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "精确问你好"))

	require.Empty(t, conn.sentTexts())
}

func TestExactMatchBeatsFuzzy(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "模糊问你答模糊回答"))
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "精确问你好答精确回答"))

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 30001, model.RoleMember, "你好"))
	texts := conn.sentTexts()
	require.Equal(t, "精确回答", texts[len(texts)-1])
}

func TestFuzzyFirstStoredKeyWins(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	// 先收录短键，再收录更长更贴切的键
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "模糊问帮答第一条"))
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, "模糊问帮助答第二条"))

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 30001, model.RoleMember, "请帮助我"))
	texts := conn.sentTexts()
	require.Equal(t, "第一条", texts[len(texts)-1])
}

func TestNoMatchNoAction(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), msgEvent(1001, 30001, model.RoleMember, "随便说点什么"))

	require.Empty(t, conn.sentTexts())
	require.Empty(t, conn.deletedIDs())
}

func TestJoinRequestSuperuserApproved(t *testing.T) {
	eng, conn, mem := newTestEngine(t)

	// 关掉全局自动入群，超级用户也应放行
	doc, _ := json.Marshal(model.ConfigTable{
		model.GlobalConfigKey: {RepeatLimit: 3, AntispamActive: true, AutoJoin: false},
	})
	require.NoError(t, mem.Save(context.Background(), model.TableGroupConfig, doc))

	eng.OnJoinRequest(context.Background(), &model.JoinRequestEvent{
		GroupID: 1001, UserID: 10001, Flag: "flag-1", SubType: "add",
	})

	require.Len(t, conn.reviews, 1)
	require.True(t, conn.reviews[0].Approve)
	require.Equal(t, "flag-1", conn.reviews[0].Flag)
}

func TestJoinRequestAutoJoinDefaultOn(t *testing.T) {
	eng, conn, _ := newTestEngine(t)

	eng.OnJoinRequest(context.Background(), &model.JoinRequestEvent{
		GroupID: 1001, UserID: 40001, Flag: "flag-2", SubType: "invite",
	})

	require.Len(t, conn.reviews, 1)
	require.Equal(t, "invite", conn.reviews[0].SubType)
}

func TestJoinRequestAutoJoinOff(t *testing.T) {
	eng, conn, mem := newTestEngine(t)

	doc, _ := json.Marshal(model.ConfigTable{
		model.GlobalConfigKey: {RepeatLimit: 3, AntispamActive: true, AutoJoin: false},
	})
	require.NoError(t, mem.Save(context.Background(), model.TableGroupConfig, doc))

	eng.OnJoinRequest(context.Background(), &model.JoinRequestEvent{
		GroupID: 1001, UserID: 40001, Flag: "flag-3", SubType: "add",
	})

	require.Empty(t, conn.reviews)
}

func TestCorruptTableDegradesToEmpty(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	require.NoError(t, mem.Save(context.Background(), model.TableAuthorization, []byte("{not json")))

	// 损坏的授权表 == 空表 == 未授权
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleMember, "菜单"))
	require.Empty(t, conn.sentTexts())

	// 授权命令照常走，写回干净的表
	eng.OnGroupMessage(context.Background(), msgEvent(1001, 10001, model.RoleMember, "授权 1001 1"))
	auth := loadAuthDoc(t, mem)
	require.Equal(t, fixedNow.Unix()+86400, auth["1001"])
}

func TestConcurrentWordEntriesNoLostUpdate(t *testing.T) {
	eng, _, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			raw := fmt.Sprintf("精确问问题%d答回答%d", n, n)
			eng.OnGroupMessage(context.Background(), msgEvent(1001, 20001, model.RoleAdmin, raw))
		}(i)
	}
	wg.Wait()

	doc, err := mem.Load(context.Background(), model.TableWordBank)
	require.NoError(t, err)
	words := model.WordTable{}
	require.NoError(t, json.Unmarshal(doc, &words))
	require.NotNil(t, words["1001"])
	require.Len(t, words["1001"].Exact, 20)
	for i := 0; i < 20; i++ {
		require.Equal(t, "回答"+strconv.Itoa(i), words["1001"].Exact["问题"+strconv.Itoa(i)])
	}
}
