package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"nutribot/internal/core/fooddata"
	"nutribot/internal/core/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	calls int
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]fooddata.RawFood, error) {
	s.calls++
	if query == "broken" {
		return nil, errors.New("upstream down")
	}
	return []fooddata.RawFood{
		{DisplayName: "Chicken Soup", FdcID: 171077, Nutrients: map[string]string{"Energy": "62 KCAL", "Protein": "3.5 G"}},
		fooddata.SentinelFood(),
	}, nil
}

func TestRunBuildThenRepublish(t *testing.T) {
	store := knowledge.NewFileStore(t.TempDir(), "")
	searcher := &stubSearcher{}
	opts := buildOptions{maxPerQuery: 3, workers: 2, queries: []string{"chicken soup", "broken"}}

	var out bytes.Buffer
	require.NoError(t, runBuild(context.Background(), &out, store, searcher, opts))
	assert.Contains(t, out.String(), "Published 1 foods")
	assert.Contains(t, out.String(), "failed: broken")
	assert.Equal(t, 2, searcher.calls)

	loaded := store.Load()
	assert.Equal(t, knowledge.SourceDynamic, loaded.Source)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "chicken_soup", loaded.Facts[0].Identifier)

	// 有快照時不再查詢
	out.Reset()
	require.NoError(t, runBuild(context.Background(), &out, store, searcher, opts))
	assert.Contains(t, out.String(), "Republished 1 foods")
	assert.Equal(t, 2, searcher.calls)

	// --refresh 強制重新查詢
	opts.refresh = true
	require.NoError(t, runBuild(context.Background(), &out, store, searcher, opts))
	assert.Equal(t, 4, searcher.calls)
}

func TestRunBuildFailsWhenNothingBuilt(t *testing.T) {
	store := knowledge.NewFileStore(t.TempDir(), "")
	err := runBuild(context.Background(), &bytes.Buffer{}, store, &stubSearcher{}, buildOptions{
		maxPerQuery: 3, workers: 1, queries: []string{"broken"},
	})
	require.Error(t, err)
	assert.Equal(t, knowledge.SourceNone, store.Load().Source)
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	store := knowledge.NewFileStore(dir, "")
	require.NoError(t, runBuild(context.Background(), &bytes.Buffer{}, store, &stubSearcher{}, buildOptions{
		maxPerQuery: 3, workers: 1, queries: []string{"chicken soup"},
	}))

	chdir(t, t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"stats", "--data-dir", dir})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "source:      dynamic")
	assert.Contains(t, out.String(), "total foods: 1")
	assert.Contains(t, out.String(), "climate:\n  cold")

	out.Reset()
	root.SetArgs([]string{"stats", "--data-dir", dir, "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"total_foods": 1`)
}
