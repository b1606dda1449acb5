package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithdrawDeletesAfterDelay(t *testing.T) {
	conn := &fakeConn{}
	w := NewWithdrawer(conn, 10*time.Millisecond)

	w.Send(context.Background(), 1001, "hello")

	require.Len(t, conn.sent, 1)
	require.Eventually(t, func() bool {
		ids := conn.deletedIDs()
		return len(ids) == 1 && ids[0] == conn.sent[0].ID
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, w.Pending())
}

func TestWithdrawSkipsOnSendFailure(t *testing.T) {
	conn := &fakeConn{failSend: true}
	w := NewWithdrawer(conn, 10*time.Millisecond)

	w.Send(context.Background(), 1001, "hello")

	require.Equal(t, 0, w.Pending())
	time.Sleep(30 * time.Millisecond)
	require.Empty(t, conn.deletedIDs())
}

func TestWithdrawCancel(t *testing.T) {
	conn := &fakeConn{}
	w := NewWithdrawer(conn, time.Hour)

	w.Send(context.Background(), 1001, "hello")
	require.Equal(t, 1, w.Pending())

	require.True(t, w.Cancel(conn.sent[0].ID))
	require.Equal(t, 0, w.Pending())
	require.False(t, w.Cancel(conn.sent[0].ID))
}

func TestWithdrawDefaultDelay(t *testing.T) {
	w := NewWithdrawer(&fakeConn{}, 0)
	require.Equal(t, defaultWithdrawDelay, w.delay)
}
