package guard

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"QGuard/logger"
	"QGuard/module/guard/model"
	"QGuard/module/guard/store"
	"QGuard/tools/safe"
)

// Connector 出站动作的抽象，由总线侧实现（见 service/bot）。
// 所有调用都是尽力而为：失败只记日志，核心不重试。
type Connector interface {
	// SendGroupMsg 发群消息，成功时返回 message_id（拿不到返回 0）
	SendGroupMsg(ctx context.Context, groupID int64, text string) (int64, error)
	// DeleteMsg 按 message_id 撤回
	DeleteMsg(ctx context.Context, messageID int64) error
	// SetGroupAddRequest 审批入群申请
	SetGroupAddRequest(ctx context.Context, flag, subType string, approve bool) error
}

// Options 核心引擎配置
type Options struct {
	Superusers    []string      // 超级用户 QQ 号
	WithdrawDelay time.Duration // 自动撤回延迟，默认 60s
	Now           func() time.Time
}

// Engine 消息处理核心：门禁 -> 命令 -> 风控 -> 词库应答。
// 所有表操作都走 store.Locked 的单写者路径。
type Engine struct {
	store    *store.Locked
	conn     Connector
	gate     *Gate
	spam     *AntiSpamTracker
	withdraw *Withdrawer
	now      func() time.Time
}

func NewEngine(s store.Store, conn Connector, opts Options) *Engine {
	safe.MustNotNil(s, "store")
	safe.MustNotNil(conn, "connector")

	locked := store.NewLocked(s)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    locked,
		conn:     conn,
		gate:     NewGate(locked, opts.Superusers),
		spam:     NewAntiSpamTracker(),
		withdraw: NewWithdrawer(conn, opts.WithdrawDelay),
		now:      now,
	}
}

// Gate 暴露给状态接口用
func (e *Engine) Gate() *Gate { return e.gate }

// OnGroupMessage 单条群消息的完整处理管线。
// 出错一律内部消化，不向连接器回抛。
func (e *Engine) OnGroupMessage(ctx context.Context, ev *model.GroupMessageEvent) {
	defer safe.Recover("guard.OnGroupMessage")

	raw := strings.TrimSpace(ev.RawMessage)
	now := e.now()
	group := strconv.FormatInt(ev.GroupID, 10)
	su := e.gate.IsSuperuser(ev.UserID)

	// A. 授权命令在门禁之前执行，仅超级用户可用
	if su && e.tryGrant(ctx, ev, raw, now) {
		return
	}

	// 门禁：未授权群的普通消息到此为止，风控和词库都不跑
	if !su && !e.gate.IsAuthorized(ctx, group, now) {
		return
	}

	admin := su || ev.IsAdmin()
	if admin {
		if e.tryConfigure(ctx, ev, group, raw, now) {
			return
		}
		if e.tryWordEntry(ctx, ev, group, raw) {
			return
		}
	}
	if e.tryMenu(ctx, ev, group, raw, su) {
		return
	}

	if !admin {
		e.moderate(ctx, ev, group, raw)
	}
	e.tryReply(ctx, ev, group, raw)
}

// OnJoinRequest 入群申请：超级用户直接过，否则看全局 auto_join。
func (e *Engine) OnJoinRequest(ctx context.Context, ev *model.JoinRequestEvent) {
	defer safe.Recover("guard.OnJoinRequest")

	if !e.gate.IsSuperuser(ev.UserID) {
		cfg := e.loadConfigs(ctx).Get(model.GlobalConfigKey)
		if !cfg.AutoJoin {
			return
		}
	}
	if err := e.conn.SetGroupAddRequest(ctx, ev.Flag, ev.SubType, true); err != nil {
		logger.Warnf("[guard] approve join request failed: group=%d user=%d err=%v", ev.GroupID, ev.UserID, err)
	}
}

// ---- 表读写：损坏/缺失一律按空表 ----

func loadTable[T any](ctx context.Context, s *store.Locked, table string, mk func() T) T {
	doc, err := s.Load(ctx, table)
	if err != nil {
		logger.Warnf("[guard] load table %s failed, treating as empty: %v", table, err)
		return mk()
	}
	if len(doc) == 0 {
		return mk()
	}
	out := mk()
	if err := json.Unmarshal(doc, &out); err != nil {
		logger.Warnf("[guard] table %s corrupt, treating as empty: %v", table, err)
		return mk()
	}
	return out
}

func updateTable[T any](ctx context.Context, s *store.Locked, table string, mk func() T, fn func(T) T) {
	err := s.Update(ctx, table, func(doc []byte) ([]byte, error) {
		cur := mk()
		if len(doc) > 0 {
			if err := json.Unmarshal(doc, &cur); err != nil {
				cur = mk()
			}
		}
		return json.Marshal(fn(cur))
	})
	if err != nil {
		logger.Errorf("[guard] update table %s failed: %v", table, err)
	}
}

func (e *Engine) loadConfigs(ctx context.Context) model.ConfigTable {
	return loadTable(ctx, e.store, model.TableGroupConfig, func() model.ConfigTable { return model.ConfigTable{} })
}

func (e *Engine) loadWords(ctx context.Context) model.WordTable {
	return loadTable(ctx, e.store, model.TableWordBank, func() model.WordTable { return model.WordTable{} })
}

func (e *Engine) updateAuth(ctx context.Context, fn func(model.AuthTable) model.AuthTable) {
	updateTable(ctx, e.store, model.TableAuthorization, func() model.AuthTable { return model.AuthTable{} }, fn)
}

func (e *Engine) updateConfigs(ctx context.Context, fn func(model.ConfigTable) model.ConfigTable) {
	updateTable(ctx, e.store, model.TableGroupConfig, func() model.ConfigTable { return model.ConfigTable{} }, fn)
}

func (e *Engine) updateWords(ctx context.Context, fn func(model.WordTable) model.WordTable) {
	updateTable(ctx, e.store, model.TableWordBank, func() model.WordTable { return model.WordTable{} }, fn)
}
