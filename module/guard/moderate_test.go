package guard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"QGuard/module/guard/model"
	"QGuard/module/guard/store"
)

func imageEvent(group, user int64, msgID int64) *model.GroupMessageEvent {
	return &model.GroupMessageEvent{
		GroupID:    group,
		UserID:     user,
		MessageID:  msgID,
		RawMessage: "[CQ:image]",
		Sender:     model.Sender{UserID: user, Role: model.RoleMember},
		Message:    []model.Segment{{Type: model.SegmentImage, Data: map[string]any{"file": "x.png"}}},
	}
}

func seedConfig(t *testing.T, mem *store.Memory, cfg model.ConfigTable) {
	t.Helper()
	doc, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, mem.Save(context.Background(), model.TableGroupConfig, doc))
}

func TestQRRecallDeletesImages(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})
	seedConfig(t, mem, model.ConfigTable{
		"1001": {QRRecall: true, RepeatLimit: 3, AntispamActive: true, AutoJoin: true},
	})

	eng.OnGroupMessage(context.Background(), imageEvent(1001, 30001, 501))

	require.Equal(t, []int64{501}, conn.deletedIDs())
}

func TestQRRecallOffLeavesImages(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	eng.OnGroupMessage(context.Background(), imageEvent(1001, 30001, 501))

	require.Empty(t, conn.deletedIDs())
}

func TestQRRecallSkipsAdmins(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})
	seedConfig(t, mem, model.ConfigTable{
		"1001": {QRRecall: true, RepeatLimit: 3, AntispamActive: true, AutoJoin: true},
	})

	ev := imageEvent(1001, 20001, 502)
	ev.Sender.Role = model.RoleAdmin
	eng.OnGroupMessage(context.Background(), ev)

	require.Empty(t, conn.deletedIDs())
}

func TestAntispamDeletesAtLimit(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})

	for i := int64(0); i < 5; i++ {
		ev := msgEvent(1001, 30001, model.RoleMember, "快来买 快来买")
		ev.MessageID = 600 + i
		eng.OnGroupMessage(context.Background(), ev)
	}

	// 默认阈值 3：第 3、4、5 条都被删，计数不因删除而清零
	require.Equal(t, []int64{602, 603, 604}, conn.deletedIDs())
}

func TestAntispamWhitespaceAndCaseInsensitive(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})
	seedConfig(t, mem, model.ConfigTable{
		"1001": {RepeatLimit: 2, AntispamActive: true, AutoJoin: true},
	})

	variants := []string{"Buy NOW", "buy   now", "BUY\tNOW"}
	for i, raw := range variants {
		ev := msgEvent(1001, 30001, model.RoleMember, raw)
		ev.MessageID = 700 + int64(i)
		eng.OnGroupMessage(context.Background(), ev)
	}

	require.Equal(t, []int64{701, 702}, conn.deletedIDs())
}

func TestAntispamDisabledPerGroup(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})
	seedConfig(t, mem, model.ConfigTable{
		"1001": {RepeatLimit: 2, AntispamActive: false, AutoJoin: true},
	})

	for i := int64(0); i < 4; i++ {
		ev := msgEvent(1001, 30001, model.RoleMember, "同一句话")
		ev.MessageID = 800 + i
		eng.OnGroupMessage(context.Background(), ev)
	}

	require.Empty(t, conn.deletedIDs())
}

func TestImageSpamHitsBothRules(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{"1001": fixedNow.Unix() + 3600})
	seedConfig(t, mem, model.ConfigTable{
		"1001": {QRRecall: true, RepeatLimit: 1, AntispamActive: true, AutoJoin: true},
	})

	eng.OnGroupMessage(context.Background(), imageEvent(1001, 30001, 900))

	// 两条规则独立命中，同一条消息被撤回两次（第二次幂等失败由连接器兜底）
	require.Equal(t, []int64{900, 900}, conn.deletedIDs())
}
