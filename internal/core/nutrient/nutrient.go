// Package nutrient 解析 "<數值> <單位>" 形式的營養素字串。
//
// 所有函式皆為純函式，對任何輸入都不會 panic；無法解析時回報缺值，
// 熱量另有 300 kcal 的預設值，讓下游分類永遠有值可用。
package nutrient

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultCalories 熱量缺值時的替代值（kcal）
const DefaultCalories = 300.0

// 熱量欄位的候選關鍵字
var calorieTokens = []string{"energy", "calor"}

// Reading 單一營養素讀值
type Reading struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// String 還原為 "<數值> <單位>" 形式
func (r Reading) String() string {
	amount := strconv.FormatFloat(r.Amount, 'f', -1, 64)
	if r.Unit == "" {
		return amount
	}
	return amount + " " + r.Unit
}

// Extract 以不分大小寫的子字串比對 target，回傳第一個可解析的數值。
// 鍵依字典序掃描，確保相同輸入得到相同結果。
func Extract(nutrients map[string]string, target string) (float64, bool) {
	return extractAny(nutrients, []string{target})
}

// Calories 取得熱量，找不到時回傳 DefaultCalories
func Calories(nutrients map[string]string) float64 {
	if v, ok := extractAny(nutrients, calorieTokens); ok {
		return v
	}
	return DefaultCalories
}

// Parse 將原始字串拆成數值與單位；數值無法解析時為 0
func Parse(name, raw string) Reading {
	fields := strings.Fields(raw)
	r := Reading{Name: name}
	if len(fields) == 0 {
		return r
	}
	if v, ok := parseAmount(fields[0]); ok {
		r.Amount = v
		r.Unit = strings.Join(fields[1:], " ")
		return r
	}
	r.Unit = strings.Join(fields, " ")
	return r
}

// ParseAll 將整個營養素表轉為 Reading
func ParseAll(nutrients map[string]string) map[string]Reading {
	out := make(map[string]Reading, len(nutrients))
	for name, raw := range nutrients {
		out[name] = Parse(name, raw)
	}
	return out
}

// Render 將 Reading 表還原為原始字串表，供分類器使用
func Render(readings map[string]Reading) map[string]string {
	out := make(map[string]string, len(readings))
	for name, r := range readings {
		out[name] = r.String()
	}
	return out
}

func extractAny(nutrients map[string]string, targets []string) (float64, bool) {
	if len(nutrients) == 0 || len(targets) == 0 {
		return 0, false
	}

	keys := make([]string, 0, len(nutrients))
	for k := range nutrients {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	needles := make([]string, 0, len(targets))
	for _, t := range targets {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			needles = append(needles, t)
		}
	}

	for _, key := range keys {
		if !containsAny(strings.ToLower(key), needles) {
			continue
		}
		fields := strings.Fields(nutrients[key])
		if len(fields) == 0 {
			continue
		}
		if v, ok := parseAmount(fields[0]); ok {
			return v, true
		}
	}
	return 0, false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// parseAmount 拒絕 NaN 與無限大，避免比較運算全部失效
func parseAmount(token string) (float64, bool) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
