package fooddata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"nutribot/internal/core/cache"
	"nutribot/internal/core/nutrient"
)

// Lookup 為推薦結果補充營養資料，結果存放於快取
type Lookup struct {
	client *Client
	cache  *cache.Manager[*FoodDetails]
}

// NewLookup 創建營養資料查詢器；cache 可為 nil
func NewLookup(client *Client, c *cache.Manager[*FoodDetails]) *Lookup {
	return &Lookup{client: client, cache: c}
}

// Details 以 FDC 編號查詢（先查快取）
func (l *Lookup) Details(ctx context.Context, fdcID int64) (*FoodDetails, error) {
	key := "fdc:" + strconv.FormatInt(fdcID, 10)
	if d, err := l.cache.Get(key); err == nil {
		return d, nil
	}

	d, err := l.client.Details(ctx, fdcID)
	if err != nil {
		return nil, err
	}
	_ = l.cache.Set(key, d)
	return d, nil
}

// Nutrients 取得營養素：有外部編號時查詳細資料，否則以名稱搜尋一筆
func (l *Lookup) Nutrients(ctx context.Context, externalID, displayName string) (map[string]nutrient.Reading, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(externalID), 10, 64); err == nil && id > 0 {
		d, err := l.Details(ctx, id)
		if err != nil {
			return nil, err
		}
		return d.Nutrients, nil
	}

	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("empty food name: %w", ErrNotFound)
	}

	key := "q:" + strings.ToLower(displayName)
	if d, err := l.cache.Get(key); err == nil {
		return d.Nutrients, nil
	}

	foods, err := l.client.Search(ctx, displayName, 1)
	if err != nil {
		return nil, err
	}
	for _, f := range foods {
		if f.IsError() {
			continue
		}
		d := &FoodDetails{FdcID: f.FdcID, Description: f.DisplayName, Nutrients: nutrient.ParseAll(f.Nutrients)}
		_ = l.cache.Set(key, d)
		return d.Nutrients, nil
	}
	return nil, fmt.Errorf("%q: %w", displayName, ErrNotFound)
}
