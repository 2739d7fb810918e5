// Package server exposes one HTTP trigger endpoint per report so an
// external scheduler (cron hitting curl) can drive the bot.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Runner is a report that can be triggered. The empty directUser routes
// output to the configured rooms.
type Runner interface {
	Run(ctx context.Context, directUser string) error
}

// Server wires the trigger endpoints to the reports.
type Server struct {
	logger      *slog.Logger
	whosout     Runner
	birthday    Runner
	anniversary Runner
}

func New(logger *slog.Logger, whosout, birthday, anniversary Runner) *Server {
	return &Server{
		logger:      logger,
		whosout:     whosout,
		birthday:    birthday,
		anniversary: anniversary,
	}
}

// RunEvery re-runs every report on a fixed interval until the context is
// canceled, for deployments without an external scheduler. The first
// cycle runs immediately.
func (s *Server) RunEvery(ctx context.Context, interval time.Duration) {
	s.logger.Info("Starting report ticker.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.runAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) runAll(ctx context.Context) {
	reports := []struct {
		name   string
		runner Runner
	}{
		{"whosout", s.whosout},
		{"birthday", s.birthday},
		{"anniversary", s.anniversary},
	}
	for _, report := range reports {
		if err := report.runner.Run(ctx, ""); err != nil {
			s.logger.Error("Report failed.", "report", report.name, "error", err)
		}
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /whosout", s.trigger("whosout", s.whosout))
	mux.HandleFunc("POST /birthday", s.trigger("birthday", s.birthday))
	mux.HandleFunc("POST /anniversary", s.trigger("anniversary", s.anniversary))
	return s.logging(mux)
}

// trigger runs a report. Failures are logged for operators only; the
// response never carries them, so a misfired cron job posts nothing
// rather than an error message.
func (s *Server) trigger(name string, runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("Report triggered.", "report", name, "remote", r.RemoteAddr)
		if err := runner.Run(r.Context(), ""); err != nil {
			s.logger.Error("Report failed.", "report", name, "error", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Handled request.", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
