// Package categorizer 以名稱關鍵字與營養素數值為食物貼上四種標籤。
//
// 每種標籤都是一組有序的 (關鍵字集合, 標籤) 規則，先命中者勝出，
// 全部未命中時才使用數值或中性預設。規則順序本身就是行為的一部分，
// 即使關鍵字集合彼此重疊（例如 "grilled salad" 會先命中晚餐規則）。
package categorizer

import (
	"strings"

	"nutribot/internal/core/nutrient"
)

// Rule 一條關鍵字規則
type Rule[L any] struct {
	Label    L
	Keywords []string
}

// matches 名稱（已轉小寫）包含任一關鍵字即命中
func (r Rule[L]) matches(lowerName string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// firstMatch 依序套用規則，回傳第一個命中的標籤
func firstMatch[L any](name string, rules []Rule[L]) (L, bool) {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.matches(lower) {
			return r.Label, true
		}
	}
	var zero L
	return zero, false
}

// MealRules 餐別規則，順序固定為 早餐 → 點心 → 晚餐 → 午餐
var MealRules = []Rule[MealCategory]{
	{MealBreakfast, []string{"oatmeal", "cereal", "egg", "toast", "pancake", "waffle", "yogurt", "fruit", "smoothie", "avena", "huevo"}},
	{MealSnack, []string{"bar", "nuts", "cookie", "chips", "fruit", "fruta", "galleta", "barra"}},
	{MealDinner, []string{"steak", "soup", "stew", "roast", "grilled", "sopa", "asado", "guiso"}},
	{MealLunch, []string{"sandwich", "salad", "pasta", "rice", "chicken", "fish", "ensalada", "pollo", "pescado", "arroz"}},
}

// ClimateRules 冷食適合炎熱氣候，熱食適合寒冷氣候
var ClimateRules = []Rule[Climate]{
	{ClimateHot, []string{"salad", "cold", "fresh", "raw", "smoothie", "ensalada", "fresco", "fría"}},
	{ClimateCold, []string{"soup", "stew", "hot", "warm", "roast", "baked", "sopa", "caliente", "horneado"}},
}

// PrepRules 準備時間規則
var PrepRules = []Rule[PrepTime]{
	{PrepQuick, []string{"raw", "fresh", "simple", "easy", "bar", "shake", "smoothie"}},
	{PrepLong, []string{"roast", "baked", "stew", "slow", "braised", "asado", "horneado"}},
}

const (
	// 蛋白質高於此值（g）視為適合低血氧狀態
	lowOxygenProtein = 15.0
	// 鐵質高於此值（mg）視為適合低血氧狀態
	lowOxygenIron = 2.0
)

// MealCategoryOf 判斷餐別；無關鍵字時依熱量分段
func MealCategoryOf(name string, nutrients map[string]string) MealCategory {
	if label, ok := firstMatch(name, MealRules); ok {
		return label
	}

	calories := nutrient.Calories(nutrients)
	switch {
	case calories < 200:
		return MealSnack
	case calories < 400:
		return MealBreakfast
	case calories < 600:
		return MealLunch
	default:
		return MealDinner
	}
}

// ClimateOf 判斷適合的氣候，無命中時為 warm
func ClimateOf(name string, _ map[string]string) Climate {
	if label, ok := firstMatch(name, ClimateRules); ok {
		return label
	}
	return ClimateWarm
}

// PrepTimeOf 判斷準備時間，無命中時為 medium
func PrepTimeOf(name string, _ map[string]string) PrepTime {
	if label, ok := firstMatch(name, PrepRules); ok {
		return label
	}
	return PrepMedium
}

// PhysiologicalStateOf 只看數值：蛋白質或鐵質足夠即適合低血氧
func PhysiologicalStateOf(_ string, nutrients map[string]string) PhysiologicalState {
	if protein, ok := nutrient.Extract(nutrients, "protein"); ok && protein > lowOxygenProtein {
		return StateLowOxygen
	}
	if iron, ok := nutrient.Extract(nutrients, "iron"); ok && iron > lowOxygenIron {
		return StateLowOxygen
	}
	return StateNormal
}

// Categorize 一次取得全部標籤與熱量估計
func Categorize(name string, nutrients map[string]string) Labels {
	return Labels{
		MealCategory:       MealCategoryOf(name, nutrients),
		Climate:            ClimateOf(name, nutrients),
		PhysiologicalState: PhysiologicalStateOf(name, nutrients),
		PrepTime:           PrepTimeOf(name, nutrients),
		Calories:           int(nutrient.Calories(nutrients)),
	}
}
