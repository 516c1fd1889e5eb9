package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/memory-master/internal/platform/tui"
	"github.com/vovakirdan/memory-master/internal/storage"
)

var (
	flagPeriod      string
	flagLimit       int
	flagInteractive bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the top scores for a period.

Periods:
  all     - All time (default)
  daily   - Runs from the last 24 hours
  weekly  - Runs from the last 7 days

Examples:
  memory scores
  memory scores --period weekly --limit 20
  memory scores --interactive`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagPeriod, "period", "all", "Period: all, daily, weekly")
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of entries to show")
	scoresCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse the leaderboard in the terminal UI")
}

func runScores(cmd *cobra.Command, _ []string) error {
	period, err := storage.ParsePeriod(flagPeriod)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cmd.Context(), cfg.Leaderboard.DSN)
	if err != nil {
		return fmt.Errorf("error opening scores database: %w", err)
	}
	defer store.Close()

	if flagInteractive {
		width, height := terminalSize()
		_, err := tui.RunScoreboard(store, cfg.Player.ID, flagLimit, width, height)
		return err
	}

	entries, err := store.Leaderboard(cmd.Context(), period, flagLimit)
	if err != nil {
		return fmt.Errorf("error retrieving scores: %w", err)
	}
	printScores(os.Stdout, period, entries)

	if cfg.Player.ID != "" {
		printPlayer(cmd.Context(), os.Stdout, store, cfg.Player.ID)
	}
	return nil
}

func printScores(w io.Writer, period storage.Period, entries []storage.Entry) {
	fmt.Fprintf(w, "Leaderboard - %s\n\n", period.Title())

	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Play 'memory play' to set the first high score!")
		return
	}

	fmt.Fprintf(w, "  %-4s  %-20s  %-5s  %-8s  %s\n", "Rank", "Player", "Level", "Score", "Date")
	fmt.Fprintf(w, "  %-4s  %-20s  %-5s  %-8s  %s\n", "----", "------", "-----", "-----", "----")
	for _, e := range entries {
		name := e.Username
		if name == "" {
			name = e.PlayerID
		}
		fmt.Fprintf(w, "  %-4d  %-20s  %-5d  %-8d  %s\n",
			e.Rank, name, e.Level, e.Score, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printPlayer(ctx context.Context, w io.Writer, store storage.Backend, playerID string) {
	entry, err := store.PlayerEntry(ctx, playerID)
	if err != nil || entry == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Your best: #%d, level %d, %d points\n", entry.Rank, entry.Level, entry.Score)
}
