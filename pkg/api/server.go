package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ava-labs/window-averager/pkg/window"
)

// Submitter is the window-facing side of averager.Service.
type Submitter interface {
	Submit(ctx context.Context, token string) (window.IngestResult, error)
	Window() (values []int64, average float64, capacity int)
	Reset()
}

// Server serves the averager HTTP API.
type Server struct {
	httpServer *http.Server
}

// NewServer creates an API server listening on addr (e.g. ":9876").
func NewServer(addr string, svc Submitter, log *zap.SugaredLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(svc, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewHandler builds the router:
//
//	GET    /numbers/:numberid  fetch, merge and report the window
//	GET    /window             current window without fetching
//	DELETE /window             empty the window
func NewHandler(svc Submitter, log *zap.SugaredLogger) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	h := &handlers{svc: svc, log: log}
	r.GET("/numbers/:numberid", h.getNumbers)
	r.GET("/window", h.getWindow)
	r.DELETE("/window", h.resetWindow)
	return r
}

// Start begins serving. This is non-blocking.
// Returns a channel that receives an error if the server fails.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server, waiting for in-flight submissions
// to finish or until the context is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
