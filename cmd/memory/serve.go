package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/memory-master/internal/api"
	"github.com/vovakirdan/memory-master/internal/config"
	"github.com/vovakirdan/memory-master/internal/platform/tui"
	"github.com/vovakirdan/memory-master/internal/session"
)

var (
	flagSSHAddr  string
	flagHTTPAddr string
	flagHostKey  string
	flagOrigin   string
	flagNoSSH    bool
	flagNoHTTP   bool
	flagShared   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game over SSH and the HTTP API",
	Long: `Start the SSH server and the HTTP API.

Each SSH connection gets its own menu and runs; the SSH user name is the
player id. All players share one leaderboard.

The HTTP server exposes:
  GET /healthz               - Liveness
  GET /metrics               - Prometheus metrics
  GET /api/leaderboard       - ?period=all|daily|weekly&limit=N
  GET /api/players/:id       - A player's entry and highest level
  GET /api/stats             - Totals
  GET /ws?player=ID&name=N   - Play a run over a WebSocket

Payments:
  In evm mode every continue is signed with the one key named by
  payment.key_env, so the operator pays for every player's continues.
  serve refuses evm mode unless --shared-wallet is given; sandbox and
  disabled modes need no flag.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.memory/host_key

Examples:
  memory serve
  memory serve --ssh :2222 --http :9090
  memory serve --no-ssh --db postgres://memory@localhost/memory

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().StringVar(&flagOrigin, "allowed-origin", "", "Allowed WebSocket origin (empty allows same host only)")
	serveCmd.Flags().BoolVar(&flagNoSSH, "no-ssh", false, "Do not start the SSH server")
	serveCmd.Flags().BoolVar(&flagNoHTTP, "no-http", false, "Do not start the HTTP server")
	serveCmd.Flags().BoolVar(&flagShared, "shared-wallet", false, "Allow evm payments signed by the operator's key for every player")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer env.cleanup()

	app := env.app
	if flagSSHAddr != "" {
		app.Config.Server.SSHAddr = flagSSHAddr
	}
	if flagHTTPAddr != "" {
		app.Config.Server.HTTPAddr = flagHTTPAddr
	}
	if flagHostKey != "" {
		app.Config.Server.HostKeyPath = flagHostKey
	}
	if flagNoSSH && flagNoHTTP {
		return fmt.Errorf("nothing to serve: both --no-ssh and --no-http are set")
	}
	if err := checkServePayment(app.Config.Payment, flagShared); err != nil {
		return err
	}
	if app.Config.Payment.Mode == config.PaymentEVM {
		app.Logger.Warn("continues are paid from the operator wallet for every player",
			"key_env", app.Config.Payment.KeyEnv)
	}

	g, ctx := errgroup.WithContext(ctx)

	if !flagNoSSH {
		sshServer, err := tui.NewSSHServer(app)
		if err != nil {
			return err
		}
		fmt.Printf("Starting Memory Master SSH server on %s\n", sshServer.Addr())
		g.Go(func() error { return sshServer.ListenAndServe(ctx) })
	}

	if !flagNoHTTP {
		httpServer := api.New(api.Options{
			Store:         app.Store,
			Metrics:       app.Metrics,
			NewSession:    sessionFactory(app),
			AllowedOrigin: flagOrigin,
			Logger:        app.Logger.WithPrefix("http"),
		})
		addr := app.Config.Server.HTTPAddr
		fmt.Printf("Starting HTTP API on %s\n", addr)
		g.Go(func() error { return httpServer.ListenAndServe(ctx, addr) })
	}

	fmt.Println("Press Ctrl+C to stop")
	return g.Wait()
}

// checkServePayment rejects evm payments in a shared server unless the
// operator opted in: the payer key is the operator's, not the player's.
func checkServePayment(cfg config.PaymentConfig, shared bool) error {
	if cfg.Mode == config.PaymentEVM && !shared {
		return fmt.Errorf("payment mode evm would sign every player's continue with %s; pass --shared-wallet to allow it", cfg.KeyEnv)
	}
	return nil
}

// sessionFactory creates WebSocket runs with the same settings as terminal
// runs.
func sessionFactory(app *tui.App) api.SessionFactory {
	return func(ctx context.Context, playerID, name string) *session.Runner {
		game := app.Config.Game
		seed := game.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return session.New(ctx, session.Options{
			PlayerID:   playerID,
			Username:   name,
			Seed:       seed,
			StartLevel: game.EffectiveStartLevel(),
			Timing:     app.Config.Timing,
			Store:      app.Store,
			Payment:    app.Payment,
			Metrics:    app.Metrics,
			Logger:     app.Logger.WithPrefix("session"),
		})
	}
}
