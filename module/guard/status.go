package guard

import (
	"context"

	"QGuard/module/guard/model"
)

// GroupStatus 只读状态接口用的群快照。
type GroupStatus struct {
	GroupID         string             `json:"group_id"`
	Authorized      bool               `json:"authorized"`
	ExpireAt        int64              `json:"expire_at"` // Unix 秒，0=未授权
	Config          *model.GroupConfig `json:"config"`
	ExactEntries    int                `json:"exact_entries"`
	FuzzyEntries    int                `json:"fuzzy_entries"`
	PendingWithdraw int                `json:"pending_withdraw"`
}

func (e *Engine) GroupStatus(ctx context.Context, groupID string) *GroupStatus {
	expire := e.gate.ExpireAt(ctx, groupID)
	st := &GroupStatus{
		GroupID:         groupID,
		Authorized:      expire > e.now().Unix(),
		ExpireAt:        expire,
		Config:          e.loadConfigs(ctx).Get(groupID),
		PendingWithdraw: e.withdraw.Pending(),
	}
	if wb := e.loadWords(ctx)[groupID]; wb != nil {
		st.ExactEntries = len(wb.Exact)
		st.FuzzyEntries = len(wb.Fuzzy)
	}
	return st
}
