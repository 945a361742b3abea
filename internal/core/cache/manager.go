package cache

import (
	"errors"
	"sync"
	"time"

	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrMiss 快取未命中或已過期
	ErrMiss = errors.New("cache miss")
	// ErrFull 快取已滿且無法淘汰
	ErrFull = errors.New("cache full")
)

// Manager 記憶體快取管理器（TTL + 最少使用淘汰）
type Manager[V any] struct {
	name    string
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	store map[string]entry[V]
	stats Stats

	stop     chan struct{}
	stopOnce sync.Once
}

// entry 緩存條目
type entry[V any] struct {
	value       V
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 緩存統計
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Errors    int64   `json:"errors"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewManager 創建新的緩存管理器；cache 停用時回傳 nil，呼叫端需視為不快取
func NewManager[V any](name string, cfg config.CacheConfig) *Manager[V] {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled", zap.String("cache", name))
		return nil
	}

	m := &Manager[V]{
		name:    name,
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
		store:   make(map[string]entry[V]),
		stop:    make(chan struct{}),
	}

	// 啟動清理過期緩存的協程
	if cfg.CleanupInterval > 0 {
		go m.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("cache", name),
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 獲取緩存值
func (m *Manager[V]) Get(key string) (V, error) {
	var zero V
	if m == nil {
		return zero, ErrMiss
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.store[key]
	if !exists {
		m.stats.Misses++
		common.LogCacheMiss(m.name, key)
		return zero, ErrMiss
	}

	// 檢查是否過期
	now := m.now()
	if now.After(e.expiresAt) {
		delete(m.store, key)
		m.stats.Evictions++
		m.stats.Misses++
		common.LogDebug("快取已過期", zap.String("cache", m.name), zap.String("鍵", key))
		return zero, ErrMiss
	}

	// 更新訪問統計
	e.lastAccess = now
	e.accessCount++
	m.store[key] = e
	m.stats.Hits++
	common.LogCacheHit(m.name, key)

	return e.value, nil
}

// Set 設置緩存值
func (m *Manager[V]) Set(key string, value V) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.maxSize {
		// 清理過期項目
		m.cleanupLocked()

		// 如果仍然超過大小限制，淘汰最少使用的項目
		if len(m.store) >= m.maxSize {
			m.evictLeastUsedLocked()
		}

		if len(m.store) >= m.maxSize {
			m.stats.Errors++
			common.LogWarn("快取已滿", zap.String("cache", m.name), zap.Int("目前容量", len(m.store)))
			return ErrFull
		}
	}

	now := m.now()
	m.store[key] = entry[V]{
		value:      value,
		expiresAt:  now.Add(m.ttl),
		createdAt:  now,
		lastAccess: now,
	}
	return nil
}

// startCleanup 啟動清理過期緩存的協程
func (m *Manager[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanupLocked 清理過期的緩存，呼叫端需持有鎖
func (m *Manager[V]) cleanupLocked() int {
	now := m.now()
	count := 0

	for key, e := range m.store {
		if now.After(e.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.Evictions++
		}
	}

	if count > 0 {
		common.LogDebug("Cleaned up expired cache entries",
			zap.String("cache", m.name),
			zap.Int("count", count),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLeastUsedLocked 淘汰訪問次數最少、且最久未訪問的項目
func (m *Manager[V]) evictLeastUsedLocked() {
	var victim string
	var oldestAccess time.Time
	lowestCount := -1

	for key, e := range m.store {
		if lowestCount < 0 ||
			e.accessCount < lowestCount ||
			(e.accessCount == lowestCount && e.lastAccess.Before(oldestAccess)) {
			victim = key
			oldestAccess = e.lastAccess
			lowestCount = e.accessCount
		}
	}

	if lowestCount >= 0 {
		delete(m.store, victim)
		m.stats.Evictions++
		common.LogDebug("快取已淘汰", zap.String("cache", m.name), zap.String("鍵", victim))
	}
}

// GetStats 獲取緩存統計信息
func (m *Manager[V]) GetStats() Stats {
	if m == nil {
		return Stats{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = len(m.store)
	s.MaxSize = m.maxSize
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close 關閉緩存管理器
func (m *Manager[V]) Close() error {
	if m == nil {
		return nil
	}
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]entry[V])
	common.LogInfo("快取管理員已關閉",
		zap.String("cache", m.name),
		zap.Int64("命中次數", m.stats.Hits),
		zap.Int64("未命中次數", m.stats.Misses),
		zap.Int64("淘汰次數", m.stats.Evictions),
	)
	return nil
}
