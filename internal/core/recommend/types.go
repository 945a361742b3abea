// Package recommend 將符合條件的食物組成推薦結果，並依意圖分派聊天訊息。
package recommend

import (
	"context"
	"errors"

	"nutribot/internal/core/categorizer"
	"nutribot/internal/core/knowledge"
	"nutribot/internal/core/nutrient"
)

// DefaultLimit 推薦數量預設值
const DefaultLimit = 3

// DefaultMaxTime 未指定可用時間時的預設分鐘數
const DefaultMaxTime = 40

// ErrSensorDataMissing 使用者尚未上傳感測資料
var ErrSensorDataMissing = errors.New("no sensor data found for this user")

// NutrientSummary 推薦項目的營養摘要
type NutrientSummary struct {
	Name       string             `json:"nombre"`
	FdcID      int64              `json:"fdcId,omitempty"`
	Nutrients  map[string]float64 `json:"nutrientes"`
	EnergyKcal *float64           `json:"energy_kcal,omitempty"`
}

// Recommendation 單一推薦項目
type Recommendation struct {
	Identifier      string           `json:"comida"`
	DisplayName     string           `json:"display_name"`
	NutrientSummary *NutrientSummary `json:"info"`
}

// NutrientLookup 取得食物營養素的外部來源
type NutrientLookup interface {
	Nutrients(ctx context.Context, externalID, displayName string) (map[string]nutrient.Reading, error)
}

// FactSource 提供目前發布的知識庫
type FactSource interface {
	Current() knowledge.FactStore
}

// Result 直接推薦的結果
type Result struct {
	UserID          string                         `json:"user_id"`
	Weather         categorizer.Climate            `json:"weather"`
	State           categorizer.PhysiologicalState `json:"state"`
	MaxTime         int                            `json:"max_time"`
	Source          knowledge.Source               `json:"source"`
	Recommendations []Recommendation               `json:"recommendations"`
}

// ChatRequest 聊天請求
type ChatRequest struct {
	UserID            string `json:"user_id"`
	Message           string `json:"message"`
	PrepTimeAvailable int    `json:"prep_time_available"`
}

// ChatResponse 聊天回應
type ChatResponse struct {
	AgentResponse   string           `json:"agent_response"`
	Intent          string           `json:"intent"`
	Recommendations []Recommendation `json:"recommendations"`
}
