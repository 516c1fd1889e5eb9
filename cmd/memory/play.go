package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/memory-master/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a run",
	Long: `Start a run right away, skipping the menu.

Controls:
  Arrows/WASD/HJKL - Move the cursor
  Space/X          - Toggle a cell (or click it)
  Enter            - Start, skip memorizing, submit, next round
  R                - Show the shape again (once per round)
  P                - Pause / resume
  C                - Pay to continue after game over
  Esc/B            - Back (when the run is over or paused)
  Q/Ctrl+C         - Quit

Difficulty options:
  easy   - Start at level 1
  normal - Start at level 3
  hard   - Start at level 8

Examples:
  memory play
  memory play --difficulty hard
  memory play --seed 42`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

// terminalSize returns the size of stdout, or 80x24 when it is not a
// terminal.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}

func runPlay(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context(), io.Discard)
	if err != nil {
		return err
	}
	defer env.cleanup()

	app := env.app
	player := localPlayer(app.Config)
	width, height := terminalSize()

	runner, stop := app.StartRun(cmd.Context(), player, app.Config.Game.Difficulty)
	if err := tui.Run(runner, stop, app.Price(), width, height); err != nil {
		return fmt.Errorf("error running game: %w", err)
	}
	<-runner.Done()
	return nil
}
