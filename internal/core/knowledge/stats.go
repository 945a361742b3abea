package knowledge

import "time"

// Stats 知識庫統計
type Stats struct {
	Source      Source         `json:"source"`
	GeneratedAt *time.Time     `json:"generated_at,omitempty"`
	TotalFoods  int            `json:"total_foods"`
	ByCategory  map[string]int `json:"by_category"`
	ByClimate   map[string]int `json:"by_climate"`
	ByState     map[string]int `json:"by_state"`
	ByPrepTime  map[string]int `json:"by_prep_time"`
}

// ComputeStats 計算各標籤的數量分佈
func ComputeStats(store FactStore) Stats {
	s := Stats{
		Source:     store.Source,
		TotalFoods: store.Len(),
		ByCategory: map[string]int{},
		ByClimate:  map[string]int{},
		ByState:    map[string]int{},
		ByPrepTime: map[string]int{},
	}
	if !store.GeneratedAt.IsZero() {
		t := store.GeneratedAt
		s.GeneratedAt = &t
	}
	for _, f := range store.Facts {
		s.ByCategory[string(f.MealCategory)]++
		s.ByClimate[string(f.Climate)]++
		s.ByState[string(f.PhysiologicalState)]++
		s.ByPrepTime[string(f.PrepTime)]++
	}
	return s
}
