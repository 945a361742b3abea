package sensor

import (
	"context"
	"sync"
)

// MemoryStore 行程內的感測器讀值儲存
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Snapshot
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Snapshot)}
}

// Put 寫入讀值
func (m *MemoryStore) Put(_ context.Context, s Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.UserID] = s
	return nil
}

// Get 讀取讀值
func (m *MemoryStore) Get(_ context.Context, userID string) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[userID]
	return s, ok, nil
}

// Len 已保存的使用者數
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
