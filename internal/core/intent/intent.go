// Package intent 將使用者訊息分類為意圖。
//
// 分類器以有序的策略清單表示：依序嘗試，第一個成功者勝出；
// 關鍵字猜測器永遠放在最後，保證一定有結果。
package intent

import (
	"context"

	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// Label 意圖標籤
type Label string

const (
	LabelFoodRecommendation Label = "recommendation.food"
	LabelGreeting           Label = "greeting"
	LabelHelp               Label = "help"
	LabelFallback           Label = "fallback"
)

// Known 是否為系統認得的意圖
func (l Label) Known() bool {
	switch l {
	case LabelFoodRecommendation, LabelGreeting, LabelHelp, LabelFallback:
		return true
	}
	return false
}

// Intent 分類結果
type Intent struct {
	Label           Label             `json:"intent"`
	Confidence      float64           `json:"confidence"`
	FulfillmentText string            `json:"fulfillment_text,omitempty"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	Source          string            `json:"source"`
}

// FailureReason 策略失敗的原因
type FailureReason string

const (
	ReasonNone         FailureReason = ""
	ReasonEmptyInput   FailureReason = "empty_input"
	ReasonUnavailable  FailureReason = "unavailable"
	ReasonUpstream     FailureReason = "upstream_error"
	ReasonUnrecognized FailureReason = "unrecognized"
)

// Outcome 單一策略的結果：成功時 Reason 為空
type Outcome struct {
	Intent Intent
	Reason FailureReason
	Err    error
}

// OK 是否成功
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// Success 建立成功結果
func Success(i Intent) Outcome {
	return Outcome{Intent: i}
}

// Failure 建立失敗結果
func Failure(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// Strategy 一種分類方式
type Strategy interface {
	Name() string
	Classify(ctx context.Context, sessionID, text string) Outcome
}

// Classifier 對外的分類介面
type Classifier interface {
	Classify(ctx context.Context, sessionID, text string) Intent
}

// Chain 依序嘗試策略
type Chain struct {
	strategies []Strategy
	terminal   Strategy
}

// NewChain 創建策略鏈，最後一定接上關鍵字猜測器
func NewChain(strategies ...Strategy) *Chain {
	list := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			list = append(list, s)
		}
	}
	return &Chain{strategies: list, terminal: NewKeywordGuesser()}
}

// Classify 回傳第一個成功策略的結果
func (c *Chain) Classify(ctx context.Context, sessionID, text string) Intent {
	for _, s := range c.strategies {
		out := s.Classify(ctx, sessionID, text)
		if out.OK() {
			return out.Intent
		}
		if out.Reason != ReasonEmptyInput {
			common.LogWarn("意圖分類策略失敗，改用下一個",
				zap.String("strategy", s.Name()),
				zap.String("reason", string(out.Reason)),
				zap.Error(out.Err),
			)
		}
	}
	return c.terminal.Classify(ctx, sessionID, text).Intent
}
