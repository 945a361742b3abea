package sensor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"nutribot/internal/core/categorizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext(t *testing.T) {
	tests := []struct {
		name        string
		oxygen      int
		temperature int
		climate     categorizer.Climate
		state       categorizer.PhysiologicalState
	}{
		{"cold and normal", 97, 12, categorizer.ClimateCold, categorizer.StateNormal},
		{"just below cold boundary", 97, 19, categorizer.ClimateCold, categorizer.StateNormal},
		{"cold boundary is hot", 98, 20, categorizer.ClimateHot, categorizer.StateNormal},
		{"oxygen boundary is normal", 94, 25, categorizer.ClimateHot, categorizer.StateNormal},
		{"low oxygen", 93, 25, categorizer.ClimateHot, categorizer.StateLowOxygen},
		{"mild day is hot", 98, 27, categorizer.ClimateHot, categorizer.StateNormal},
		{"hot and low oxygen", 88, 35, categorizer.ClimateHot, categorizer.StateLowOxygen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			climate, state := Context(Snapshot{OxygenLevel: tt.oxygen, Temperature: tt.temperature}, DefaultThresholds)
			assert.Equal(t, tt.climate, climate)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestContextWithWarmBand(t *testing.T) {
	thresholds := Thresholds{LowOxygenBelow: 94, ColdBelow: 20, WarmBelow: 28}
	for temperature, want := range map[int]categorizer.Climate{
		19: categorizer.ClimateCold,
		20: categorizer.ClimateWarm,
		27: categorizer.ClimateWarm,
		28: categorizer.ClimateHot,
	} {
		climate, _ := Context(Snapshot{OxygenLevel: 98, Temperature: temperature}, thresholds)
		assert.Equal(t, want, climate, "temperature %d", temperature)
	}
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, Snapshot{UserID: "u1", OxygenLevel: 97, Temperature: 10}))
	require.NoError(t, store.Put(ctx, Snapshot{UserID: "u1", OxygenLevel: 90, Temperature: 30}))

	got, ok, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 90, got.OxygenLevel)
	assert.Equal(t, 1, store.Len())

	assert.ErrorIs(t, store.Put(ctx, Snapshot{}), ErrInvalidSnapshot)
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Put(ctx, Snapshot{UserID: fmt.Sprintf("u%d", i%5), HeartRate: i})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, store.Len())
}

func TestRedisCodec(t *testing.T) {
	snap := Snapshot{
		UserID:      "u1",
		OxygenLevel: 95,
		Temperature: 18,
		HeartRate:   72,
		ReceivedAt:  time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC),
	}
	data, err := encode(snap)
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.Equal(t, "sensor:u1", key("u1"))

	_, err = decode([]byte("{broken"))
	assert.Error(t, err)
}
