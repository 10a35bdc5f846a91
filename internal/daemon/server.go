package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"driftd"
)

// Monitor is the interface the API server needs from the environment
// monitor.
type Monitor interface {
	Status() driftd.MonitorStatus
	IsAlive() bool
}

// ClockSource reports wall-clock health.
type ClockSource interface {
	Status() driftd.ClockStatus
}

type Server struct {
	monitor Monitor
	clock   ClockSource
	version string
}

func NewServer(m Monitor, clock ClockSource, version string) *Server {
	return &Server{monitor: m, clock: clock, version: version}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	v1.GET("/status", s.getStatus)
	v1.GET("/healthz", s.getHealthz)
	return r
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, driftd.Status{
		Version: s.version,
		Monitor: s.monitor.Status(),
		Clock:   s.clock.Status(),
	})
}

// getHealthz reports 200 while the monitor loop is running and 503
// once it has stopped, so a process supervisor can restart the daemon.
func (s *Server) getHealthz(c *gin.Context) {
	if !s.monitor.IsAlive() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"alive": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alive": true})
}

// ListenAndServe serves the status API on a unix socket and blocks
// until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	// Remove stale socket from a previous run (may not exist).
	_ = os.Remove(socketPath)
	defer func() { _ = os.Remove(socketPath) }()

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", socketPath, err)
	}

	srv := &http.Server{Handler: s.routes()}

	// Shut down when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
