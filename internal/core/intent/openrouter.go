package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const openRouterSource = "openrouter"

// 分類提示詞，要求模型只回傳 JSON
const classifyPrompt = `You classify messages sent to a meal recommendation assistant.
Answer with a single JSON object and nothing else:
{"intent": "<recommendation.food|greeting|help|fallback>", "confidence": <0..1>, "reply": "<short reply in the user's language, empty for recommendation.food>", "parameters": {"<name>": "<value>"}}
Use recommendation.food when the user asks what to eat or for a meal, breakfast, lunch, dinner or snack.`

// Observer 接收外部呼叫的結果，供指標使用
type Observer interface {
	ObserveUpstream(service, operation string, duration time.Duration, err error)
}

// OpenRouterClassifier 以 LLM 分類意圖，受熔斷器保護
type OpenRouterClassifier struct {
	client    *resty.Client
	model     string
	maxTokens int
	breaker   *gobreaker.CircuitBreaker[string]
	observer  Observer
}

// chatResponse OpenRouter chat completions 回應
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// llmAnswer 模型回傳的 JSON
type llmAnswer struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Reply      string            `json:"reply"`
	Parameters map[string]string `json:"parameters"`
}

// NewOpenRouterClassifier 創建 OpenRouter 分類器
func NewOpenRouterClassifier(cfg config.OpenRouterConfig, appName string, observer Observer) *OpenRouterClassifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("X-Title", appName)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	return &OpenRouterClassifier{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		observer:  observer,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        openRouterSource,
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				common.LogWarn("熔斷器狀態變更",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// Name 策略名稱
func (c *OpenRouterClassifier) Name() string {
	return openRouterSource
}

// Classify 呼叫模型並解析回答
func (c *OpenRouterClassifier) Classify(ctx context.Context, sessionID, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Failure(ReasonEmptyInput, nil)
	}

	start := time.Now()
	content, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, sessionID, text)
	})
	if c.observer != nil {
		c.observer.ObserveUpstream(openRouterSource, "classify", time.Since(start), err)
	}
	common.LogUpstreamCall(openRouterSource, "classify", time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Failure(ReasonUnavailable, err)
		}
		return Failure(ReasonUpstream, err)
	}

	intent, err := parseAnswer(content)
	if err != nil {
		return Failure(ReasonUnrecognized, err)
	}
	return Success(intent)
}

// complete 送出 chat completions 請求
func (c *OpenRouterClassifier) complete(ctx context.Context, sessionID, text string) (string, error) {
	// 構建請求
	req := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": classifyPrompt},
			{"role": "user", "content": text},
		},
		"max_tokens":  c.maxTokens,
		"temperature": 0,
	}
	if sessionID != "" {
		req["user"] = sessionID
	}

	// 發送請求
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode())
	}

	// 解析回應
	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}
	return result.Choices[0].Message.Content, nil
}

// parseAnswer 從模型文字中取出 JSON 並驗證意圖標籤
func parseAnswer(content string) (Intent, error) {
	var answer llmAnswer
	if err := common.ParseJSON(common.ExtractJSONObject(content), &answer); err != nil {
		return Intent{}, fmt.Errorf("failed to parse model answer: %w", err)
	}

	label := Label(strings.TrimSpace(answer.Intent))
	if !label.Known() {
		return Intent{}, fmt.Errorf("unknown intent %q", answer.Intent)
	}

	confidence := answer.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Intent{
		Label:           label,
		Confidence:      confidence,
		FulfillmentText: strings.TrimSpace(answer.Reply),
		Parameters:      answer.Parameters,
		Source:          openRouterSource,
	}, nil
}
