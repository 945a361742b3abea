package intent

import (
	"context"
	"strings"
)

const keywordSource = "keyword"

// keywordRules 依序比對，第一個命中者勝出
var keywordRules = []struct {
	label    Label
	keywords []string
}{
	{LabelFoodRecommendation, []string{
		"recomienda", "recomendar", "comer", "almuerzo", "cena", "desayuno", "dieta",
		"comida", "qué comer", "que comer", "recomendación", "recomendame", "recomiéndame",
	}},
	{LabelGreeting, []string{
		"hola", "saludos", "hi", "hello", "buenos días", "buenas tardes", "buenas noches",
		"qué tal", "que tal",
	}},
	{LabelHelp, []string{"ayuda", "help", "cómo funciona", "que puedo hacer"}},
}

// KeywordGuesser 不依賴外部服務的關鍵字分類
type KeywordGuesser struct{}

// NewKeywordGuesser 創建關鍵字猜測器
func NewKeywordGuesser() *KeywordGuesser {
	return &KeywordGuesser{}
}

// Name 策略名稱
func (*KeywordGuesser) Name() string {
	return keywordSource
}

// Classify 永遠成功：空訊息為信心 0 的 fallback，未命中為信心 0.5 的 fallback
func (*KeywordGuesser) Classify(_ context.Context, _ string, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Success(Intent{Label: LabelFallback, Confidence: 0, Source: keywordSource})
	}

	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Success(Intent{Label: rule.label, Confidence: 0.7, Source: keywordSource})
			}
		}
	}
	return Success(Intent{Label: LabelFallback, Confidence: 0.5, Source: keywordSource})
}
