// Package matcher 依 (氣候, 生理狀態, 可用時間) 篩選知識庫。
package matcher

import (
	"nutribot/internal/core/categorizer"
	"nutribot/internal/core/knowledge"
)

// Thresholds 各準備時間分級所需的最少可用分鐘數
type Thresholds struct {
	Quick  int
	Medium int
	Long   int
}

// DefaultThresholds quick 不限時間，medium 需 20 分鐘，long 需 45 分鐘
var DefaultThresholds = Thresholds{Quick: 0, Medium: 20, Long: 45}

// Minimum 回傳分級所需的最少分鐘數；未知分級視為無法滿足
func (t Thresholds) Minimum(p categorizer.PrepTime) (int, bool) {
	switch p {
	case categorizer.PrepQuick:
		return t.Quick, true
	case categorizer.PrepMedium:
		return t.Medium, true
	case categorizer.PrepLong:
		return t.Long, true
	}
	return 0, false
}

// Allows 可用時間大於等於門檻即可；時間越多，允許的分級只增不減
func (t Thresholds) Allows(p categorizer.PrepTime, maxTime int) bool {
	need, ok := t.Minimum(p)
	return ok && maxTime >= need
}

// Matcher 約束比對器
type Matcher struct {
	thresholds Thresholds
}

// New 創建比對器
func New(thresholds Thresholds) *Matcher {
	return &Matcher{thresholds: thresholds}
}

// Thresholds 目前使用的門檻
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Match 回傳符合條件的識別碼，順序與知識庫一致；沒有結果時回傳空切片
func (m *Matcher) Match(store knowledge.FactStore, climate categorizer.Climate, state categorizer.PhysiologicalState, maxTime int) []string {
	ids := []string{}
	for _, f := range store.Facts {
		if f.Climate != climate || f.PhysiologicalState != state {
			continue
		}
		if !m.thresholds.Allows(f.PrepTime, maxTime) {
			continue
		}
		ids = append(ids, f.Identifier)
	}
	return ids
}

// Match 使用預設門檻比對
func Match(store knowledge.FactStore, climate categorizer.Climate, state categorizer.PhysiologicalState, maxTime int) []string {
	return New(DefaultThresholds).Match(store, climate, state, maxTime)
}
