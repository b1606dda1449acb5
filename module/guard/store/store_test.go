package store

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLoadMissing(t *testing.T) {
	m := NewMemory()
	doc, err := m.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Save(context.Background(), "t", []byte(`{"a":1}`)))

	doc, err := m.Load(context.Background(), "t")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(doc))

	// 返回的是副本，调用方改不动底层
	doc[2] = 'x'
	doc2, err := m.Load(context.Background(), "t")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(doc2))
}

func TestLockedUpdateSerialized(t *testing.T) {
	l := NewLocked(NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Update(ctx, "counter", func(doc []byte) ([]byte, error) {
				n := 0
				if len(doc) > 0 {
					var err error
					n, err = strconv.Atoi(string(doc))
					if err != nil {
						return nil, err
					}
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := l.Load(ctx, "counter")
	require.NoError(t, err)
	require.Equal(t, "100", string(doc))
}

func TestLockedUpdateNilSkipsWrite(t *testing.T) {
	l := NewLocked(NewMemory())
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "t", []byte("keep")))
	require.NoError(t, l.Update(ctx, "t", func(doc []byte) ([]byte, error) {
		return nil, nil
	}))

	doc, err := l.Load(ctx, "t")
	require.NoError(t, err)
	require.Equal(t, "keep", string(doc))
}

func TestLockedUpdateMutateError(t *testing.T) {
	l := NewLocked(NewMemory())
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "t", []byte("keep")))
	err := l.Update(ctx, "t", func(doc []byte) ([]byte, error) {
		return nil, context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	doc, err := l.Load(ctx, "t")
	require.NoError(t, err)
	require.Equal(t, "keep", string(doc))
}

func TestLockedLocksPerTable(t *testing.T) {
	l := NewLocked(NewMemory())
	ctx := context.Background()

	// 占住 a 表的锁，b 表的更新不应被挡住
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = l.Update(ctx, "a", func(doc []byte) ([]byte, error) {
			close(started)
			<-release
			return []byte("a"), nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_ = l.Update(ctx, "b", func(doc []byte) ([]byte, error) {
			return []byte("b"), nil
		})
		close(done)
	}()
	<-done
	close(release)
}
