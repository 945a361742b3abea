package categorizer

// Climate 食物適合的氣候
type Climate string

// PhysiologicalState 食物適合的生理狀態
type PhysiologicalState string

// PrepTime 準備時間分級
type PrepTime string

// MealCategory 餐別
type MealCategory string

const (
	ClimateCold Climate = "cold"
	ClimateWarm Climate = "warm"
	ClimateHot  Climate = "hot"

	StateNormal    PhysiologicalState = "normal"
	StateLowOxygen PhysiologicalState = "low_oxygen"

	PrepQuick  PrepTime = "quick"
	PrepMedium PrepTime = "medium"
	PrepLong   PrepTime = "long"

	MealBreakfast MealCategory = "breakfast"
	MealLunch     MealCategory = "lunch"
	MealDinner    MealCategory = "dinner"
	MealSnack     MealCategory = "snack"
)

// MealCategories 依輸出分組順序排列
var MealCategories = []MealCategory{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid 檢查是否為已知氣候
func (c Climate) Valid() bool {
	return c == ClimateCold || c == ClimateWarm || c == ClimateHot
}

// Valid 檢查是否為已知生理狀態
func (s PhysiologicalState) Valid() bool {
	return s == StateNormal || s == StateLowOxygen
}

// Valid 檢查是否為已知準備時間
func (p PrepTime) Valid() bool {
	return p == PrepQuick || p == PrepMedium || p == PrepLong
}

// Valid 檢查是否為已知餐別
func (m MealCategory) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Labels 單一食物的完整分類結果
type Labels struct {
	MealCategory       MealCategory
	Climate            Climate
	PhysiologicalState PhysiologicalState
	PrepTime           PrepTime
	Calories           int
}
