package fooddata

import (
	"strconv"

	"nutribot/internal/core/nutrient"
)

// SentinelError 搜尋失敗時以此名稱標記的佔位結果
const SentinelError = "Error fetching data"

// RawFood 搜尋回傳的原始食物
type RawFood struct {
	DisplayName string            `json:"display_name"`
	FdcID       int64             `json:"fdc_id,omitempty"`
	Nutrients   map[string]string `json:"nutrients"` // 名稱 → "<數值> <單位>"
}

// IsError 判斷是否為無法處理的佔位結果
func (r RawFood) IsError() bool {
	return r.DisplayName == "" || r.DisplayName == SentinelError
}

// ExternalID 以字串表示的 FDC 編號，沒有時為空字串
func (r RawFood) ExternalID() string {
	if r.FdcID <= 0 {
		return ""
	}
	return strconv.FormatInt(r.FdcID, 10)
}

// SentinelFood 建立佔位結果
func SentinelFood() RawFood {
	return RawFood{DisplayName: SentinelError, Nutrients: map[string]string{}}
}

// FoodDetails 單一食物的詳細營養資料
type FoodDetails struct {
	FdcID       int64                       `json:"fdc_id"`
	Description string                      `json:"description"`
	DataType    string                      `json:"data_type,omitempty"`
	Nutrients   map[string]nutrient.Reading `json:"nutrients"`
}

// searchResponse /foods/search 回應
type searchResponse struct {
	TotalHits int          `json:"totalHits"`
	Foods     []searchFood `json:"foods"`
}

type searchFood struct {
	FdcID         int64            `json:"fdcId"`
	Description   string           `json:"description"`
	FoodNutrients []searchNutrient `json:"foodNutrients"`
}

type searchNutrient struct {
	NutrientID   int      `json:"nutrientId"`
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
}

// detailResponse /food/{id} 回應，同時支援 full 與 abridged 兩種格式
type detailResponse struct {
	FdcID         int64            `json:"fdcId"`
	Description   string           `json:"description"`
	DataType      string           `json:"dataType"`
	FoodNutrients []detailNutrient `json:"foodNutrients"`
}

type detailNutrient struct {
	Nutrient *struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`

	// abridged 格式
	Name     string `json:"name"`
	UnitName string `json:"unitName"`
}

// toRawFood 將搜尋結果轉為 "<數值> <單位>" 的營養素表
func (f searchFood) toRawFood() RawFood {
	nutrients := make(map[string]string, len(f.FoodNutrients))
	for _, n := range f.FoodNutrients {
		if n.NutrientName == "" || n.Value == nil {
			continue
		}
		nutrients[n.NutrientName] = nutrient.Reading{Amount: *n.Value, Unit: n.UnitName}.String()
	}
	return RawFood{
		DisplayName: f.Description,
		FdcID:       f.FdcID,
		Nutrients:   nutrients,
	}
}

// toDetails 轉換詳細資料
func (d detailResponse) toDetails() *FoodDetails {
	nutrients := make(map[string]nutrient.Reading, len(d.FoodNutrients))
	for _, n := range d.FoodNutrients {
		name, unit := n.Name, n.UnitName
		if n.Nutrient != nil {
			name, unit = n.Nutrient.Name, n.Nutrient.UnitName
		}
		if name == "" || n.Amount == nil {
			continue
		}
		nutrients[name] = nutrient.Reading{Name: name, Amount: *n.Amount, Unit: unit}
	}
	return &FoodDetails{
		FdcID:       d.FdcID,
		Description: d.Description,
		DataType:    d.DataType,
		Nutrients:   nutrients,
	}
}
