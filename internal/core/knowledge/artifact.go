package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nutribot/internal/core/categorizer"
	"nutribot/internal/pkg/common"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
)

// listingFile 依餐別分組的知識庫清單（dynamic 與 static 共用格式）
type listingFile struct {
	GeneratedAt time.Time       `yaml:"generated_at"`
	TotalFoods  int             `yaml:"total_foods"`
	Categories  listingSections `yaml:"categories"`
}

// listingSections 固定輸出順序：早餐、午餐、晚餐、點心
type listingSections struct {
	Breakfast []FoodFact `yaml:"breakfast"`
	Lunch     []FoodFact `yaml:"lunch"`
	Dinner    []FoodFact `yaml:"dinner"`
	Snack     []FoodFact `yaml:"snack"`
}

func (s *listingSections) section(c categorizer.MealCategory) *[]FoodFact {
	switch c {
	case categorizer.MealBreakfast:
		return &s.Breakfast
	case categorizer.MealLunch:
		return &s.Lunch
	case categorizer.MealDinner:
		return &s.Dinner
	case categorizer.MealSnack:
		return &s.Snack
	}
	return nil
}

// snapshotFile 完整序列化快照，包含營養素
type snapshotFile struct {
	GeneratedAt time.Time  `json:"generated_at"`
	TotalFoods  int        `json:"total_foods"`
	Foods       []FoodFact `json:"foods"`
}

// encodeListing 依餐別分組輸出 YAML
func encodeListing(facts []FoodFact, generatedAt time.Time) ([]byte, error) {
	lf := listingFile{GeneratedAt: generatedAt.UTC(), TotalFoods: len(facts)}
	for _, f := range facts {
		sec := lf.Categories.section(f.MealCategory)
		if sec == nil {
			return nil, fmt.Errorf("fact %q has unknown category %q", f.Identifier, f.MealCategory)
		}
		*sec = append(*sec, f)
	}
	return yaml.Marshal(&lf)
}

// decodeListing 讀回清單；餐別由所在區段決定。
// 標籤不合法的項目記錄後略過，缺識別碼時由顯示名稱推導。
func decodeListing(data []byte) ([]FoodFact, time.Time, error) {
	var lf listingFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing fact listing: %w", err)
	}

	var facts []FoodFact
	positions := make(map[string]int)
	for _, c := range categorizer.MealCategories {
		for _, f := range *lf.Categories.section(c) {
			f.MealCategory = c
			if f.Identifier == "" {
				f.Identifier = Normalize(f.DisplayName)
			}
			if !f.Valid() {
				common.LogWarn("知識庫項目格式錯誤，略過",
					zap.String("id", f.Identifier),
					zap.String("category", string(c)),
				)
				continue
			}

			// 手動編輯的清單可能重複識別碼：保留第一次出現的位置，內容以後者為準
			if pos, ok := positions[f.Identifier]; ok {
				common.LogWarn("知識庫識別碼重複，以後者為準",
					zap.String("id", f.Identifier),
					zap.String("previous_category", string(facts[pos].MealCategory)),
					zap.String("category", string(c)),
				)
				facts[pos] = f
				continue
			}
			positions[f.Identifier] = len(facts)
			facts = append(facts, f)
		}
	}
	return facts, lf.GeneratedAt, nil
}

func encodeSnapshot(facts []FoodFact, generatedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(snapshotFile{
		GeneratedAt: generatedAt.UTC(),
		TotalFoods:  len(facts),
		Foods:       facts,
	}, "", "  ")
}

func decodeSnapshot(data []byte) ([]FoodFact, time.Time, error) {
	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing snapshot: %w", err)
	}
	if sf.TotalFoods != len(sf.Foods) {
		return nil, time.Time{}, fmt.Errorf("snapshot total_foods=%d but contains %d foods", sf.TotalFoods, len(sf.Foods))
	}
	return sf.Foods, sf.GeneratedAt, nil
}

// writeTemp 將內容寫入目標同目錄下的暫存檔，回傳暫存檔路徑
func writeTemp(destPath string, data []byte) (string, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return "", fmt.Errorf("writing temp file: %w", err)
		}
	}
	return tmpPath, nil
}
