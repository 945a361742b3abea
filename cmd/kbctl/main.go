// Package main 是知識庫離線工具 kbctl 的進入點。
package main

import (
	"fmt"
	"os"

	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"github.com/spf13/cobra"
)

// cfg 於 PersistentPreRunE 載入
var cfg *config.Config

// rootCmd kbctl 根命令
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kbctl",
		Short: "Build and inspect the nutribot food knowledge base",
		Long: `kbctl builds the dynamic food knowledge base from USDA FoodData Central
and reports statistics about the generation the server would load.

The server picks up a new generation on its next reload or restart.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
				loaded.Knowledge.DataDir = dir
			}
			cfg = loaded

			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				return common.InitLogger(common.LoggerOptions{Level: "debug", Service: "kbctl"})
			}
			common.InitNopLogger()
			return nil
		},
	}

	root.PersistentFlags().String("data-dir", "", "knowledge base directory (default: knowledge.data_dir)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log progress to stdout")

	root.AddCommand(newBuildCmd(), newStatsCmd())
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kbctl:", err)
		os.Exit(1)
	}
}
