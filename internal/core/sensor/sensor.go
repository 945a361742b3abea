// Package sensor 保存每位使用者最新的感測器讀值，並推導比對所需的情境。
package sensor

import (
	"context"
	"errors"
	"time"

	"nutribot/internal/core/categorizer"
)

// ErrInvalidSnapshot 讀值缺少使用者
var ErrInvalidSnapshot = errors.New("invalid sensor snapshot")

// Snapshot 使用者最新的感測器讀值
type Snapshot struct {
	UserID      string    `json:"user_id"`
	OxygenLevel int       `json:"oxygen_level"`
	Temperature int       `json:"temperature"`
	HeartRate   int       `json:"heart_rate"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Store 感測器讀值儲存，同一使用者後寫入者覆蓋先前的值
type Store interface {
	Put(ctx context.Context, snapshot Snapshot) error
	Get(ctx context.Context, userID string) (Snapshot, bool, error)
}

// Thresholds 由讀值推導情境的門檻
type Thresholds struct {
	LowOxygenBelow int // 血氧低於此值視為 low_oxygen
	ColdBelow      int // 溫度低於此值視為 cold
	WarmBelow      int // 溫度低於此值視為 warm，否則 hot；等於 ColdBelow 時不使用 warm
}

// DefaultThresholds 血氧 94、溫度 20 度；預設只有 cold / hot 兩段，warm 需由設定開啟
var DefaultThresholds = Thresholds{LowOxygenBelow: 94, ColdBelow: 20, WarmBelow: 20}

// Context 推導 (氣候, 生理狀態)
func Context(s Snapshot, t Thresholds) (categorizer.Climate, categorizer.PhysiologicalState) {
	state := categorizer.StateNormal
	if s.OxygenLevel < t.LowOxygenBelow {
		state = categorizer.StateLowOxygen
	}

	var climate categorizer.Climate
	switch {
	case s.Temperature < t.ColdBelow:
		climate = categorizer.ClimateCold
	case s.Temperature < t.WarmBelow:
		climate = categorizer.ClimateWarm
	default:
		climate = categorizer.ClimateHot
	}
	return climate, state
}

func validate(s Snapshot) error {
	if s.UserID == "" {
		return ErrInvalidSnapshot
	}
	return nil
}
