package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/infrastructure"
	"github.com/yourusername/mediaget-go/internal/progress"
)

// openHistory opens the history store named by the configuration
func openHistory() (*app.TransferManager, func(), error) {
	config, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !config.History.Enabled {
		return nil, nil, app.ErrHistoryDisabled
	}

	repo, err := infrastructure.NewSQLiteTransferRepository(config.History.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open transfer history: %w", err)
	}

	manager := app.NewTransferManager(nil, nil, repo, nil, log)
	return manager, func() {
		repo.Close()
		log.Sync()
	}, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded transfers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openHistory()
		if err != nil {
			return err
		}
		defer closeFn()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		filters := make(map[string]interface{})
		if status != "" {
			filters["status"] = status
		}

		records, err := manager.History(filters, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tMODE\tBYTES\tFILE\tSTARTED")
		for _, r := range records {
			status := string(r.Status)
			if r.Reason != "" {
				status += " (" + string(r.Reason) + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				truncate(r.PageURL, 40),
				status,
				r.Mode,
				formatBytes(r.BytesWritten),
				truncate(r.FilePath, 40),
				r.StartedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show transfer statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openHistory()
		if err != nil {
			return err
		}
		defer closeFn()

		stats, err := manager.Stats()
		if err != nil {
			return err
		}

		fmt.Println("Transfer Statistics:")
		fmt.Printf("  Total:       %d\n", stats.Total)
		fmt.Printf("  Completed:   %d\n", stats.Completed)
		fmt.Printf("  Skipped:     %d\n", stats.Skipped)
		fmt.Printf("  Failed:      %d\n", stats.Failed)
		fmt.Printf("  Transferred: %s\n", formatBytes(stats.BytesTotal))
		return nil
	},
}

func init() {
	historyCmd.Flags().String("status", "", "Filter by status (completed, skipped, failed)")
	historyCmd.Flags().Int("limit", 50, "Maximum number of records")
}

func formatBytes(n int64) string {
	value, unit := progress.ToUnit(float64(n))
	return fmt.Sprintf("%.1f%sB", value, unit)
}
