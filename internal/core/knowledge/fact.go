// Package knowledge 建立、發布與載入已分類的食物知識庫。
//
// 知識庫有兩個世代：由重建流程產生的 dynamic 世代，以及隨程式附帶的
// static 世代。只要 dynamic 世代存在就只讀它，兩者從不合併。
package knowledge

import (
	"strings"
	"time"
	"unicode"

	"nutribot/internal/core/categorizer"
	"nutribot/internal/core/fooddata"
	"nutribot/internal/core/nutrient"
)

// MaxIdentifierLength 識別碼長度上限
const MaxIdentifierLength = 50

// Source 知識庫世代來源
type Source string

const (
	SourceDynamic Source = "dynamic"
	SourceStatic  Source = "static"
	SourceNone    Source = "none"
)

// FoodFact 知識庫中的一筆食物
type FoodFact struct {
	Identifier         string                         `json:"identifier" yaml:"id"`
	DisplayName        string                         `json:"display_name" yaml:"display_name"`
	ExternalID         string                         `json:"fdc_id,omitempty" yaml:"fdc_id,omitempty"`
	Climate            categorizer.Climate            `json:"climate" yaml:"climate"`
	PhysiologicalState categorizer.PhysiologicalState `json:"state" yaml:"state"`
	PrepTime           categorizer.PrepTime           `json:"prep_time" yaml:"prep_time"`
	MealCategory       categorizer.MealCategory       `json:"category" yaml:"-"`
	Calories           int                            `json:"calories" yaml:"calories"`
	Nutrients          map[string]nutrient.Reading    `json:"nutrients,omitempty" yaml:"-"`
}

// Valid 四個標籤都必須是已知值且識別碼非空
func (f FoodFact) Valid() bool {
	return f.Identifier != "" &&
		f.Climate.Valid() &&
		f.PhysiologicalState.Valid() &&
		f.PrepTime.Valid() &&
		f.MealCategory.Valid()
}

// FactStore 有序的食物集合與其世代資訊
type FactStore struct {
	Source      Source
	GeneratedAt time.Time
	Facts       []FoodFact
}

// Len 食物數量
func (s FactStore) Len() int {
	return len(s.Facts)
}

// Find 依識別碼查找
func (s FactStore) Find(identifier string) (FoodFact, bool) {
	for _, f := range s.Facts {
		if f.Identifier == identifier {
			return f, true
		}
	}
	return FoodFact{}, false
}

// Normalize 由顯示名稱推導識別碼：轉小寫，空白、連字號與逗號轉為底線，
// 保留 Unicode 字母、數字與底線（「piña」維持原樣），最後截斷至 50 個字元（rune）。
// 不同名稱可能得到相同識別碼。
func Normalize(displayName string) string {
	var b strings.Builder
	b.Grow(len(displayName))
	n := 0
	for _, r := range strings.ToLower(displayName) {
		if n >= MaxIdentifierLength {
			break
		}
		switch {
		case r == ' ' || r == '-' || r == ',':
			r = '_'
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// NewFact 將搜尋結果分類為 FoodFact
func NewFact(raw fooddata.RawFood) FoodFact {
	labels := categorizer.Categorize(raw.DisplayName, raw.Nutrients)
	return FoodFact{
		Identifier:         Normalize(raw.DisplayName),
		DisplayName:        raw.DisplayName,
		ExternalID:         raw.ExternalID(),
		Climate:            labels.Climate,
		PhysiologicalState: labels.PhysiologicalState,
		PrepTime:           labels.PrepTime,
		MealCategory:       labels.MealCategory,
		Calories:           labels.Calories,
		Nutrients:          nutrient.ParseAll(raw.Nutrients),
	}
}
