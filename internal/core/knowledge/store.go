package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DynamicListingFile 重建後的清單檔名
	DynamicListingFile = "foods_dynamic.yaml"
	// SnapshotFile 完整快照檔名
	SnapshotFile = "food_cache.json"
	// DefaultStaticFile 隨附的 static 世代檔名
	DefaultStaticFile = "foods_static.yaml"
)

// FileStore 以檔案保存知識庫世代
type FileStore struct {
	dir        string
	staticPath string
}

// NewFileStore 創建檔案知識庫；static 為相對路徑時相對於 dataDir
func NewFileStore(dataDir, static string) *FileStore {
	if static == "" {
		static = DefaultStaticFile
	}
	if !filepath.IsAbs(static) {
		static = filepath.Join(dataDir, static)
	}
	return &FileStore{dir: dataDir, staticPath: static}
}

// DynamicPath dynamic 清單路徑
func (s *FileStore) DynamicPath() string {
	return filepath.Join(s.dir, DynamicListingFile)
}

// SnapshotPath 快照路徑
func (s *FileStore) SnapshotPath() string {
	return filepath.Join(s.dir, SnapshotFile)
}

// StaticPath static 清單路徑
func (s *FileStore) StaticPath() string {
	return s.staticPath
}

// Load 每次呼叫都重新檢查檔案：dynamic 存在時只讀 dynamic（無法讀取時
// 記錄錯誤並回傳空集合，不改讀 static）；dynamic 不存在才讀 static；
// 兩者都不存在時回傳空集合。從不回傳錯誤。
func (s *FileStore) Load() FactStore {
	data, err := os.ReadFile(s.DynamicPath())
	switch {
	case err == nil:
		facts, generatedAt, err := decodeListing(data)
		if err != nil {
			common.LogError("dynamic 知識庫無法解析", zap.String("path", s.DynamicPath()), zap.Error(err))
			return FactStore{Source: SourceDynamic}
		}
		return FactStore{Source: SourceDynamic, GeneratedAt: generatedAt, Facts: facts}
	case !errors.Is(err, fs.ErrNotExist):
		common.LogError("dynamic 知識庫無法讀取", zap.String("path", s.DynamicPath()), zap.Error(err))
		return FactStore{Source: SourceDynamic}
	}

	data, err = os.ReadFile(s.staticPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			common.LogError("static 知識庫無法讀取", zap.String("path", s.staticPath), zap.Error(err))
		}
		return FactStore{Source: SourceNone}
	}
	facts, generatedAt, err := decodeListing(data)
	if err != nil {
		common.LogError("static 知識庫無法解析", zap.String("path", s.staticPath), zap.Error(err))
		return FactStore{Source: SourceNone}
	}
	return FactStore{Source: SourceStatic, GeneratedAt: generatedAt, Facts: facts}
}

// Publish 發布新的 dynamic 世代。兩個檔案先完整寫入暫存檔，
// 再依序以 rename 取代快照與清單；讀取端永遠只看到完整的檔案。
func (s *FileStore) Publish(facts []FoodFact, generatedAt time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	listing, err := encodeListing(facts, generatedAt)
	if err != nil {
		return fmt.Errorf("encoding fact listing: %w", err)
	}
	snapshot, err := encodeSnapshot(facts, generatedAt)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	listingTmp, err := writeTemp(s.DynamicPath(), listing)
	if err != nil {
		return err
	}
	snapshotTmp, err := writeTemp(s.SnapshotPath(), snapshot)
	if err != nil {
		os.Remove(listingTmp)
		return err
	}

	if err := os.Rename(snapshotTmp, s.SnapshotPath()); err != nil {
		os.Remove(listingTmp)
		os.Remove(snapshotTmp)
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	if err := os.Rename(listingTmp, s.DynamicPath()); err != nil {
		os.Remove(listingTmp)
		return fmt.Errorf("publishing fact listing: %w", err)
	}

	common.LogInfo("知識庫已發布",
		zap.String("path", s.DynamicPath()),
		zap.Int("total_foods", len(facts)),
	)
	return nil
}

// LoadSnapshot 讀取完整快照（含營養素），供不重新查詢 API 的重建使用
func (s *FileStore) LoadSnapshot() ([]FoodFact, time.Time, error) {
	data, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return decodeSnapshot(data)
}
