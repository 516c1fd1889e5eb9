package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/memory-master/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with the main menu",
	Long: `Start Memory Master in interactive menu mode.

Pick a difficulty, play, and come back to the menu when the run is over.
The leaderboard is one key away.

Controls:
  Up/Down/j/k  - Navigate menu
  Left/Right   - Change difficulty
  Enter        - Select
  Tab          - Leaderboard
  Q            - Quit

Examples:
  memory menu
  memory menu --difficulty normal
  memory menu --db ./scores.db`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func runMenu(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context(), io.Discard)
	if err != nil {
		return err
	}
	defer env.cleanup()

	width, height := terminalSize()
	if err := tui.RunSession(cmd.Context(), env.app, localPlayer(env.app.Config), width, height); err != nil {
		return fmt.Errorf("error running menu: %w", err)
	}
	return nil
}
