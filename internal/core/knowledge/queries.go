package knowledge

import "nutribot/internal/core/categorizer"

// QueryGroup 依餐別分組的預設查詢
type QueryGroup struct {
	Category categorizer.MealCategory
	Queries  []string
}

// DefaultQueryGroups 重建時預設使用的查詢清單
var DefaultQueryGroups = []QueryGroup{
	{categorizer.MealBreakfast, []string{
		"oatmeal", "scrambled eggs", "avocado toast", "yogurt granola", "pancakes",
		"fruit salad", "smoothie bowl", "bagel cream cheese", "french toast", "breakfast burrito",
	}},
	{categorizer.MealLunch, []string{
		"chicken salad", "quinoa bowl", "tuna sandwich", "pasta", "rice bowl", "burrito",
		"wrap", "soup", "pizza slice", "grilled chicken", "salmon", "veggie burger",
	}},
	{categorizer.MealDinner, []string{
		"grilled fish", "roasted chicken", "steak", "vegetable stir fry", "pasta primavera",
		"curry", "tacos", "enchiladas", "pork chops", "turkey breast", "lamb chops",
	}},
	{categorizer.MealSnack, []string{
		"almonds", "protein bar", "apple", "banana", "carrots", "hummus", "cheese",
		"crackers", "popcorn", "yogurt",
	}},
}

// DefaultQueries 將分組查詢攤平，保持分組順序
func DefaultQueries() []string {
	var out []string
	for _, g := range DefaultQueryGroups {
		out = append(out, g.Queries...)
	}
	return out
}
