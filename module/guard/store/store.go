package store

import (
	"context"
	"sync"
)

// Store 整表快照式 KV 存储。
// Load 返回某张表上次保存的 JSON 文档；从未写过返回 (nil, nil)。
// Save 原子覆盖整个文档。没有按键的部分写入：所有“改一个字段”的
// 操作都是 读整表 -> 内存改 -> 写整表。
type Store interface {
	Load(ctx context.Context, table string) ([]byte, error)
	Save(ctx context.Context, table string, doc []byte) error
}

// Locked 给 Store 加每表互斥锁，把读-改-写串行化成单写者。
// 两个同群消息并发各自 load/save 会丢第一个写者的更新，
// 锁的粒度必须覆盖整张表（文档是整表一份，按群分锁不够）。
type Locked struct {
	s  Store
	mu sync.Mutex
	lk map[string]*sync.Mutex
}

func NewLocked(s Store) *Locked {
	return &Locked{s: s, lk: make(map[string]*sync.Mutex)}
}

func (l *Locked) tableLock(table string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.lk[table]
	if !ok {
		m = &sync.Mutex{}
		l.lk[table] = m
	}
	return m
}

func (l *Locked) Load(ctx context.Context, table string) ([]byte, error) {
	return l.s.Load(ctx, table)
}

func (l *Locked) Save(ctx context.Context, table string, doc []byte) error {
	m := l.tableLock(table)
	m.Lock()
	defer m.Unlock()
	return l.s.Save(ctx, table, doc)
}

// Update 在表锁内执行 load -> mutate -> save。
// mutate 返回 (nil, nil) 表示放弃写入。
func (l *Locked) Update(ctx context.Context, table string, mutate func(doc []byte) ([]byte, error)) error {
	m := l.tableLock(table)
	m.Lock()
	defer m.Unlock()

	doc, err := l.s.Load(ctx, table)
	if err != nil {
		// 读失败按空表继续，见错误处理约定
		doc = nil
	}
	out, err := mutate(doc)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return l.s.Save(ctx, table, out)
}

// Memory 内存实现，测试用。
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, table string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[table]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

func (m *Memory) Save(_ context.Context, table string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[table] = append([]byte(nil), doc...)
	return nil
}
