package recommend

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"nutribot/internal/core/nutrient"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// 單一項目營養查詢的時間上限
const defaultEnrichTimeout = 5 * time.Second

// Composer 組成推薦清單
type Composer struct {
	facts         FactSource
	lookup        NutrientLookup
	enrichTimeout time.Duration
}

// NewComposer 創建組成器；lookup 為 nil 時不補充營養資料
func NewComposer(facts FactSource, lookup NutrientLookup) *Composer {
	return &Composer{facts: facts, lookup: lookup, enrichTimeout: defaultEnrichTimeout}
}

// Compose 截斷至 limit 筆並補充顯示名稱與營養摘要。
// 營養查詢失敗只會讓該筆摘要為 nil，不影響其餘項目。
func (c *Composer) Compose(ctx context.Context, identifiers []string, limit int) []Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(identifiers) > limit {
		identifiers = identifiers[:limit]
	}

	recs := make([]Recommendation, len(identifiers))
	externalIDs := make([]string, len(identifiers))
	store := c.facts.Current()
	for i, id := range identifiers {
		recs[i] = Recommendation{Identifier: id, DisplayName: DisplayName(id)}
		if fact, ok := store.Find(id); ok {
			if fact.DisplayName != "" {
				recs[i].DisplayName = fact.DisplayName
			}
			externalIDs[i] = fact.ExternalID
		}
	}

	if c.lookup == nil {
		return recs
	}

	var wg sync.WaitGroup
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i].NutrientSummary = c.enrich(ctx, externalIDs[i], recs[i])
		}(i)
	}
	wg.Wait()
	return recs
}

// enrich 查詢單一項目的營養素
func (c *Composer) enrich(ctx context.Context, externalID string, rec Recommendation) *NutrientSummary {
	ctx, cancel := context.WithTimeout(ctx, c.enrichTimeout)
	defer cancel()

	readings, err := c.lookup.Nutrients(ctx, externalID, rec.DisplayName)
	if err != nil {
		common.LogWarn("營養資料查詢失敗",
			zap.String("comida", rec.Identifier),
			zap.String("fdc_id", externalID),
			zap.Error(err),
		)
		return nil
	}
	return Summarize(rec.DisplayName, externalID, readings)
}

// Summarize 將營養素讀值整理成摘要
func Summarize(name, externalID string, readings map[string]nutrient.Reading) *NutrientSummary {
	s := &NutrientSummary{Name: name, Nutrients: make(map[string]float64, len(readings))}
	if id, err := strconv.ParseInt(externalID, 10, 64); err == nil {
		s.FdcID = id
	}
	for name, r := range readings {
		s.Nutrients[name] = r.Amount
	}
	if kcal, ok := energyKcal(readings); ok {
		s.EnergyKcal = &kcal
	}
	return s
}

// energyKcal 找出以 kcal 表示的熱量
func energyKcal(readings map[string]nutrient.Reading) (float64, bool) {
	raw := make(map[string]string, len(readings))
	for name, r := range readings {
		if strings.EqualFold(r.Unit, "kj") {
			continue
		}
		raw[name] = r.String()
	}
	if v, ok := nutrient.Extract(raw, "energy"); ok {
		return v, true
	}
	return nutrient.Extract(raw, "calor")
}

var titleCaser = cases.Title(language.Und)

// DisplayName 由識別碼推導顯示名稱："chicken_soup" → "Chicken Soup"
func DisplayName(identifier string) string {
	return titleCaser.String(strings.ReplaceAll(identifier, "_", " "))
}
