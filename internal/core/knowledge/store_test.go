package knowledge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nutribot/internal/core/categorizer"
	"nutribot/internal/core/nutrient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staticListing = `generated_at: 2025-01-01T00:00:00Z
total_foods: 2
categories:
  breakfast:
    - id: oatmeal
      display_name: Oatmeal
      climate: warm
      state: normal
      prep_time: quick
      calories: 150
  dinner:
    - id: chicken_soup
      display_name: Chicken Soup
      climate: cold
      state: normal
      prep_time: medium
      calories: 120
`

func chickenSoup() FoodFact {
	return FoodFact{
		Identifier:         "chicken_soup",
		DisplayName:        "Chicken Soup",
		ExternalID:         "171077",
		Climate:            categorizer.ClimateCold,
		PhysiologicalState: categorizer.StateNormal,
		PrepTime:           categorizer.PrepMedium,
		MealCategory:       categorizer.MealDinner,
		Calories:           62,
		Nutrients:          map[string]nutrient.Reading{"Energy": {Name: "Energy", Amount: 62, Unit: "kcal"}},
	}
}

func steak() FoodFact {
	return FoodFact{
		Identifier:         "steak",
		DisplayName:        "Steak",
		Climate:            categorizer.ClimateWarm,
		PhysiologicalState: categorizer.StateLowOxygen,
		PrepTime:           categorizer.PrepMedium,
		MealCategory:       categorizer.MealDinner,
		Calories:           271,
	}
}

func newTestStore(t *testing.T, withStatic bool) *FileStore {
	t.Helper()
	dir := t.TempDir()
	if withStatic {
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultStaticFile), []byte(staticListing), 0o644))
	}
	return NewFileStore(dir, "")
}

func TestLoadEmptyWhenNothingExists(t *testing.T) {
	store := newTestStore(t, false).Load()
	assert.Equal(t, SourceNone, store.Source)
	assert.Zero(t, store.Len())
}

func TestLoadFallsBackToStatic(t *testing.T) {
	store := newTestStore(t, true).Load()
	require.Equal(t, SourceStatic, store.Source)
	assert.Equal(t, []string{"oatmeal", "chicken_soup"}, identifiers(store.Facts))
	assert.Equal(t, categorizer.MealDinner, store.Facts[1].MealCategory)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), store.GeneratedAt)
}

func TestDynamicTakesPrecedenceAndDeletionRevealsStatic(t *testing.T) {
	fs := newTestStore(t, true)
	generatedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Publish([]FoodFact{steak()}, generatedAt))

	store := fs.Load()
	require.Equal(t, SourceDynamic, store.Source)
	assert.Equal(t, []string{"steak"}, identifiers(store.Facts))
	assert.Equal(t, generatedAt, store.GeneratedAt)

	require.NoError(t, os.Remove(fs.DynamicPath()))

	store = fs.Load()
	assert.Equal(t, SourceStatic, store.Source)
	assert.Equal(t, []string{"oatmeal", "chicken_soup"}, identifiers(store.Facts))
}

func TestCorruptDynamicYieldsEmptyStoreWithoutStatic(t *testing.T) {
	fs := newTestStore(t, true)
	require.NoError(t, os.WriteFile(fs.DynamicPath(), []byte("categories: [not: valid"), 0o644))

	store := fs.Load()
	assert.Equal(t, SourceDynamic, store.Source)
	assert.Zero(t, store.Len())
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	fs := newTestStore(t, false)
	listing := `categories:
  lunch:
    - display_name: Tuna Sandwich
      climate: warm
      state: normal
      prep_time: quick
    - id: bad
      climate: tropical
      state: normal
      prep_time: quick
`
	require.NoError(t, os.WriteFile(fs.DynamicPath(), []byte(listing), 0o644))

	store := fs.Load()
	require.Equal(t, 1, store.Len())
	assert.Equal(t, "tuna_sandwich", store.Facts[0].Identifier)
	assert.Equal(t, categorizer.MealLunch, store.Facts[0].MealCategory)
}

func TestLoadCollapsesDuplicateIdentifiers(t *testing.T) {
	fs := newTestStore(t, false)
	listing := `categories:
  breakfast:
    - id: oatmeal
      display_name: Oatmeal
      climate: cold
      state: normal
      prep_time: quick
      calories: 150
    - id: toast
      display_name: Toast
      climate: cold
      state: normal
      prep_time: quick
      calories: 90
  snack:
    - display_name: Oatmeal
      climate: cold
      state: normal
      prep_time: quick
      calories: 120
`
	require.NoError(t, os.WriteFile(fs.DynamicPath(), []byte(listing), 0o644))

	store := fs.Load()
	require.Equal(t, []string{"oatmeal", "toast"}, identifiers(store.Facts))
	assert.Equal(t, 120, store.Facts[0].Calories)
	assert.Equal(t, categorizer.MealSnack, store.Facts[0].MealCategory)
}

func TestPublishGroupsByCategoryAndWritesSnapshot(t *testing.T) {
	fs := newTestStore(t, false)
	oatmeal := FoodFact{
		Identifier: "oatmeal", DisplayName: "Oatmeal",
		Climate: categorizer.ClimateWarm, PhysiologicalState: categorizer.StateNormal,
		PrepTime: categorizer.PrepQuick, MealCategory: categorizer.MealBreakfast, Calories: 150,
	}
	generatedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Publish([]FoodFact{chickenSoup(), oatmeal}, generatedAt))

	// 清單依餐別分組，早餐在前
	store := fs.Load()
	assert.Equal(t, []string{"oatmeal", "chicken_soup"}, identifiers(store.Facts))

	facts, snapAt, err := fs.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, generatedAt, snapAt)
	require.Len(t, facts, 2)
	assert.Equal(t, chickenSoup(), facts[0])

	// 不留暫存檔
	entries, err := os.ReadDir(filepath.Dir(fs.DynamicPath()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestPublishFailureKeepsPreviousGeneration(t *testing.T) {
	fs := newTestStore(t, false)
	require.NoError(t, fs.Publish([]FoodFact{steak()}, time.Now()))

	bad := steak()
	bad.Identifier = "mystery"
	bad.MealCategory = "brunch"
	assert.Error(t, fs.Publish([]FoodFact{bad}, time.Now()))

	store := fs.Load()
	assert.Equal(t, []string{"steak"}, identifiers(store.Facts))
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, _, err := newTestStore(t, false).LoadSnapshot()
	assert.Error(t, err)
}

func TestCatalogReload(t *testing.T) {
	fs := newTestStore(t, true)
	catalog := NewCatalog(fs)
	assert.Equal(t, SourceStatic, catalog.Current().Source)

	require.NoError(t, fs.Publish([]FoodFact{steak()}, time.Now()))
	// 未重新載入前仍是舊世代
	assert.Equal(t, SourceStatic, catalog.Current().Source)

	catalog.Reload()
	assert.Equal(t, SourceDynamic, catalog.Current().Source)
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(FactStore{Source: SourceDynamic, Facts: []FoodFact{chickenSoup(), steak()}})
	assert.Equal(t, 2, s.TotalFoods)
	assert.Equal(t, 2, s.ByCategory["dinner"])
	assert.Equal(t, 1, s.ByClimate["cold"])
	assert.Equal(t, 1, s.ByState["low_oxygen"])
	assert.Equal(t, 2, s.ByPrepTime["medium"])
	assert.Nil(t, s.GeneratedAt)
}
