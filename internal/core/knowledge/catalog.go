package knowledge

import (
	"sync/atomic"

	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// Loader 載入目前的知識庫世代
type Loader interface {
	Load() FactStore
}

// Catalog 行程內持有目前發布的知識庫，請求路徑只讀取指標
type Catalog struct {
	loader  Loader
	current atomic.Pointer[FactStore]
}

// NewCatalog 創建並立即載入一次
func NewCatalog(loader Loader) *Catalog {
	c := &Catalog{loader: loader}
	c.Reload()
	return c
}

// Current 目前的知識庫
func (c *Catalog) Current() FactStore {
	if s := c.current.Load(); s != nil {
		return *s
	}
	return FactStore{Source: SourceNone}
}

// Reload 重新從 Loader 載入並替換
func (c *Catalog) Reload() FactStore {
	s := c.loader.Load()
	c.current.Store(&s)
	common.LogInfo("知識庫已載入",
		zap.String("source", string(s.Source)),
		zap.Int("total_foods", s.Len()),
	)
	return s
}
