package recommend

import (
	"context"
	"errors"
	"strings"

	"nutribot/internal/core/intent"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// state 對話分派狀態；所有轉移都是立即的，送出回應即結束
type state int

const (
	stateAwaitingIntent state = iota
	stateFoodRecommendation
	stateGreeting
	stateHelp
	stateFallback
	stateDone
)

// 分派結果，供指標使用
const (
	OutcomeRecommended   = "recommended"
	OutcomeNoMatch       = "no_match"
	OutcomeMissingData   = "missing_sensor_data"
	OutcomeSensorFailure = "sensor_error"
	OutcomeGreeting      = "greeting"
	OutcomeHelp          = "help"
	OutcomeFallback      = "fallback"
)

// DispatchObserver 接收每次分派的意圖與結果
type DispatchObserver interface {
	ObserveDispatch(intent, outcome string)
}

// Dispatcher 依意圖將聊天訊息分派到推薦或固定回覆
type Dispatcher struct {
	classifier  intent.Classifier
	recommender *Recommender
	observer    DispatchObserver
}

// NewDispatcher 創建分派器；observer 可為 nil
func NewDispatcher(classifier intent.Classifier, recommender *Recommender, observer DispatchObserver) *Dispatcher {
	return &Dispatcher{classifier: classifier, recommender: recommender, observer: observer}
}

// transition 意圖標籤對應的下一個狀態
func transition(label intent.Label) state {
	switch label {
	case intent.LabelFoodRecommendation:
		return stateFoodRecommendation
	case intent.LabelGreeting:
		return stateGreeting
	case intent.LabelHelp:
		return stateHelp
	default:
		return stateFallback
	}
}

// Handle 處理一則聊天訊息，永遠回傳可顯示的回應
func (d *Dispatcher) Handle(ctx context.Context, req ChatRequest) ChatResponse {
	sessionID := strings.TrimSpace(req.UserID)
	if sessionID == "" {
		sessionID = common.GenerateUUID()
	}

	var (
		outcome string
		in      intent.Intent
	)
	// 所有分支都回傳陣列，避免序列化為 null
	resp := ChatResponse{Recommendations: []Recommendation{}}
	for st := stateAwaitingIntent; st != stateDone; {
		switch st {
		case stateAwaitingIntent:
			in = d.classifier.Classify(ctx, sessionID, req.Message)
			resp.Intent = string(in.Label)
			st = transition(in.Label)
		case stateFoodRecommendation:
			var recs []Recommendation
			resp.AgentResponse, recs, outcome = d.recommendFood(ctx, req)
			if len(recs) > 0 {
				resp.Recommendations = recs
			}
			st = stateDone
		case stateGreeting:
			resp.AgentResponse, outcome = replyOr(in, MsgGreeting), OutcomeGreeting
			st = stateDone
		case stateHelp:
			resp.AgentResponse, outcome = replyOr(in, MsgHelp), OutcomeHelp
			st = stateDone
		default:
			resp.AgentResponse, outcome = replyOr(in, MsgFallback), OutcomeFallback
			resp.Intent = string(intent.LabelFallback)
			st = stateDone
		}
	}

	common.LogInfo("聊天訊息已分派",
		zap.String("session_id", sessionID),
		zap.String("intent", resp.Intent),
		zap.Float64("confidence", in.Confidence),
		zap.String("source", in.Source),
		zap.String("outcome", outcome),
	)
	if d.observer != nil {
		d.observer.ObserveDispatch(resp.Intent, outcome)
	}
	return resp
}

// recommendFood 食物推薦狀態
func (d *Dispatcher) recommendFood(ctx context.Context, req ChatRequest) (string, []Recommendation, string) {
	result, err := d.recommender.ForUser(ctx, req.UserID, req.PrepTimeAvailable)
	switch {
	case errors.Is(err, ErrSensorDataMissing):
		return MsgMissingSensorData, nil, OutcomeMissingData
	case err != nil:
		common.LogError("讀取感測資料失敗", zap.String("user_id", req.UserID), zap.Error(err))
		return MsgSensorUnavailable, nil, OutcomeSensorFailure
	case len(result.Recommendations) == 0:
		return Explain(nil), nil, OutcomeNoMatch
	default:
		return Explain(result.Recommendations), result.Recommendations, OutcomeRecommended
	}
}

// replyOr 優先使用分類器提供的回覆
func replyOr(in intent.Intent, canned string) string {
	if text := strings.TrimSpace(in.FulfillmentText); text != "" {
		return text
	}
	return canned
}
