package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"nutribot/internal/core/knowledge"
	"nutribot/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the generation the server would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			store := knowledge.NewFileStore(cfg.Knowledge.DataDir, cfg.Knowledge.StaticFile)
			return printStats(cmd.OutOrStdout(), knowledge.ComputeStats(store.Load()), asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "output statistics as JSON")
	return cmd
}

// printStats 輸出統計，分佈依標籤排序
func printStats(out io.Writer, stats knowledge.Stats, asJSON bool) error {
	if asJSON {
		data, err := common.MarshalIndent(stats)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "source:      %s\n", stats.Source)
	if stats.GeneratedAt != nil {
		fmt.Fprintf(out, "generated:   %s\n", stats.GeneratedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "total foods: %d\n", stats.TotalFoods)
	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"category", stats.ByCategory},
		{"climate", stats.ByClimate},
		{"state", stats.ByState},
		{"prep time", stats.ByPrepTime},
	} {
		fmt.Fprintf(out, "%s:\n", section.title)
		labels := make([]string, 0, len(section.counts))
		for l := range section.counts {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Fprintf(out, "  %-12s %d\n", l, section.counts[l])
		}
	}
	return nil
}
