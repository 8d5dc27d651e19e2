package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pixgallery/pkg/history"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recent searches",
	Long: `Submitted queries are remembered so they can be recalled with the up and
down keys in the gallery. Only the query text is kept.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.NewManager("", history.DefaultLimit, logger.GetLogger())
		if err != nil {
			return err
		}
		entries, err := hist.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No searches yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-40s %s\n",
				ui.Dim(e.LastUsed.Format("2006-01-02 15:04")),
				ui.Truncate(e.Query, 40),
				ui.Dim(fmt.Sprintf("x%d", e.Count)))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every recent search",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.NewManager("", history.DefaultLimit, logger.GetLogger())
		if err != nil {
			return err
		}
		if err := hist.Clear(); err != nil {
			ui.PrintError("Failed to clear history", err)
			return err
		}
		ui.PrintSuccess("Search history cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
}
