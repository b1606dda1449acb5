package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"QGuard/module/guard/model"
)

func TestScanExpiryWarnsOnlyInsideWindow(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	now := fixedNow.Unix()
	seedAuth(t, mem, model.AuthTable{
		"1001": now + 23*3600 + 1800, // 窗口内：还剩 23.5h
		"1002": now + 22*3600,        // 太近，窗口已过
		"1003": now + 25*3600,        // 还早
		"1004": now + 23*3600,        // 边界：恰好 23h，开区间不含
		"1005": now + 24*3600,        // 边界：恰好 24h，开区间不含
		"1006": now - 100,            // 已过期
	})

	eng.scanExpiry(context.Background())

	require.Len(t, conn.sent, 1)
	require.Equal(t, int64(1001), conn.sent[0].GroupID)
	require.Contains(t, conn.sent[0].Text, "到期，请及时续期")
}

func TestScanExpirySkipsBadGroupKey(t *testing.T) {
	eng, conn, mem := newTestEngine(t)
	seedAuth(t, mem, model.AuthTable{
		"not-a-number": fixedNow.Unix() + 23*3600 + 1800,
	})

	eng.scanExpiry(context.Background())

	require.Empty(t, conn.sent)
}

func TestScanExpiryEmptyTable(t *testing.T) {
	eng, conn, _ := newTestEngine(t)
	eng.scanExpiry(context.Background())
	require.Empty(t, conn.sent)
}
