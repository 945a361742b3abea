package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"nutribot/internal/core/fooddata"
	"nutribot/internal/core/knowledge"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and publish the dynamic knowledge base",
		Long: `Build queries FoodData Central, categorizes every result and publishes a new
dynamic generation (fact listing plus full snapshot).

Without --refresh an existing snapshot is republished instead of querying the
API again. Foods whose lookup fails are skipped; the run only fails when no
food could be built.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh, _ := cmd.Flags().GetBool("refresh")
			maxPerQuery, _ := cmd.Flags().GetInt("max-per-query")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if maxPerQuery <= 0 {
				maxPerQuery = cfg.Ingestion.MaxPerQuery
			}
			if timeout <= 0 {
				timeout = cfg.Ingestion.Timeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store := knowledge.NewFileStore(cfg.Knowledge.DataDir, cfg.Knowledge.StaticFile)
			return runBuild(ctx, cmd.OutOrStdout(), store, fooddata.NewClient(cfg.FDC, nil), buildOptions{
				refresh:     refresh,
				maxPerQuery: maxPerQuery,
				workers:     cfg.Ingestion.Workers,
				queries:     cfg.Ingestion.Queries,
			})
		},
	}

	cmd.Flags().Bool("refresh", false, "query the API even when a snapshot exists")
	cmd.Flags().Int("max-per-query", 0, "results kept per search query (default: ingestion.max_per_query)")
	cmd.Flags().Duration("timeout", 0, "abandon the run after this long (default: ingestion.timeout)")
	return cmd
}

type buildOptions struct {
	refresh     bool
	maxPerQuery int
	workers     int
	queries     []string
}

// runBuild 重建或由快照重新發布
func runBuild(ctx context.Context, out io.Writer, store *knowledge.FileStore, searcher knowledge.Searcher, opts buildOptions) error {
	if !opts.refresh {
		facts, _, err := store.LoadSnapshot()
		switch {
		case err == nil && len(facts) > 0:
			if err := store.Publish(facts, time.Now().UTC()); err != nil {
				return fmt.Errorf("republishing snapshot: %w", err)
			}
			fmt.Fprintf(out, "Republished %d foods from %s\n", len(facts), store.SnapshotPath())
			return nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(out, "Snapshot unusable (%v), querying the API\n", err)
		}
	}

	queries := opts.queries
	if len(queries) == 0 {
		queries = knowledge.DefaultQueries()
	}

	facts, report, err := knowledge.NewBuilder(searcher, opts.workers).Build(ctx, queries, opts.maxPerQuery)
	if err != nil {
		return fmt.Errorf("building knowledge base: %w", err)
	}
	if len(facts) == 0 {
		return fmt.Errorf("no foods built: %d of %d queries failed", len(report.FailedQueries), report.Queries)
	}
	if err := store.Publish(facts, time.Now().UTC()); err != nil {
		return fmt.Errorf("publishing knowledge base: %w", err)
	}

	fmt.Fprintf(out, "Published %d foods to %s (%d queries, %d failed, %d dropped, %d duplicates) in %s\n",
		len(facts), store.DynamicPath(), report.Queries, len(report.FailedQueries),
		report.Dropped, report.Duplicates, report.Duration.Round(time.Millisecond))
	for _, q := range report.FailedQueries {
		fmt.Fprintf(out, "  failed: %s\n", q)
	}
	return nil
}
