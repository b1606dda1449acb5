package guard

import (
	"context"
	"strconv"
	"time"

	"QGuard/module/guard/model"
	"QGuard/module/guard/store"
)

// Gate 授权门禁：群授权到期时间 + 超级用户集合。
type Gate struct {
	store      *store.Locked
	superusers map[int64]struct{}
}

func NewGate(s *store.Locked, superusers []string) *Gate {
	set := make(map[int64]struct{}, len(superusers))
	for _, su := range superusers {
		id, err := strconv.ParseInt(su, 10, 64)
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}
	return &Gate{store: s, superusers: set}
}

func (g *Gate) IsSuperuser(userID int64) bool {
	_, ok := g.superusers[userID]
	return ok
}

// IsAuthorized 到期时间严格大于 now 才算授权；缺失视为 0。
func (g *Gate) IsAuthorized(ctx context.Context, groupID string, now time.Time) bool {
	return g.ExpireAt(ctx, groupID) > now.Unix()
}

// ExpireAt 某群的授权到期时间（Unix 秒），未授权为 0。
func (g *Gate) ExpireAt(ctx context.Context, groupID string) int64 {
	auth := loadTable(ctx, g.store, model.TableAuthorization, func() model.AuthTable { return model.AuthTable{} })
	return auth[groupID]
}
