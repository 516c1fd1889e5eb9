// Package api serves the leaderboard over HTTP and lets browser clients play
// over a websocket.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/memory-master/internal/games/memory"
	"github.com/vovakirdan/memory-master/internal/metrics"
	"github.com/vovakirdan/memory-master/internal/session"
	"github.com/vovakirdan/memory-master/internal/storage"
)

// SessionFactory creates the runner for a websocket player. The runner must
// stop when ctx is cancelled.
type SessionFactory func(ctx context.Context, playerID, name string) *session.Runner

// Options configures a Server. Metrics and NewSession are optional; without
// NewSession the /ws route is not registered.
type Options struct {
	Store         storage.Backend
	Metrics       *metrics.Metrics
	NewSession    SessionFactory
	AllowedOrigin string
	Logger        *log.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	store         storage.Backend
	metrics       *metrics.Metrics
	newSession    SessionFactory
	allowedOrigin string
	log           *log.Logger
}

// New creates a server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		store:         opts.Store,
		metrics:       opts.Metrics,
		newSession:    opts.NewSession,
		allowedOrigin: opts.AllowedOrigin,
		log:           logger,
	}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/leaderboard", s.leaderboard)
	api.GET("/players/:id", s.player)
	api.GET("/stats", s.stats)

	if s.newSession != nil {
		r.GET("/ws", s.serveWS)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// leaderboard lists the top entries: ?period=all|daily|weekly&limit=N.
func (s *Server) leaderboard(c *gin.Context) {
	period, err := storage.ParsePeriod(c.DefaultQuery("period", string(storage.PeriodAll)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := storage.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.store.Leaderboard(c.Request.Context(), period, limit)
	if err != nil {
		s.log.Error("failed to load leaderboard", "period", period, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"period":  period,
		"title":   period.Title(),
		"entries": out,
	})
}

func (s *Server) player(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	entry, err := s.store.PlayerEntry(ctx, id)
	if err != nil {
		s.log.Error("failed to load player", "player", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get player"})
		return
	}
	highest, err := s.store.HighestLevel(ctx, id)
	if err != nil {
		s.log.Error("failed to load highest level", "player", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get player"})
		return
	}
	if entry == nil && highest == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	resp := gin.H{
		"player_id":     id,
		"highest_level": highest,
	}
	if entry != nil {
		resp["entry"] = toEntryJSON(*entry)
		resp["share"] = memory.ShareText(entry.Score, entry.Level)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.log.Error("failed to load stats", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs":        st.Runs,
		"players":     st.Players,
		"best_score":  st.BestScore,
		"best_level":  st.BestLevel,
		"avg_score":   st.AvgScore,
		"last_played": st.LastPlayed,
	})
}

// ListenAndServe serves the router on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("stopping http server")
		return srv.Shutdown(shutdownCtx)
	}
}
