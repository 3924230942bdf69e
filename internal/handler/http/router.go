package httphandler

import (
	"log/slog"
	"net/http"
	"time"
)

type Services struct {
	Page       PageService
	Build      BuildService
	Counter    CounterService
	Newsletter NewsletterService
	Countdown  CountdownService
}

func NewRouter(s *Services, buildTimeout time.Duration, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", NewPageHandler(s.Page, log))
	mux.Handle("GET /api/page", NewInfoHandler(s.Page, log))
	mux.Handle("POST /api/build", NewBuildHandler(s.Build, buildTimeout, log))
	mux.Handle("GET /api/stats", NewStatsHandler(s.Counter, log))
	mux.Handle("POST /api/subscribe", NewSubscribeHandler(s.Newsletter, log))
	mux.Handle("GET /api/countdown", NewCountdownHandler(s.Countdown, log))
	mux.Handle("GET /api/countdown/stream", NewCountdownStreamHandler(s.Countdown, log))
	mux.Handle("GET /healthz", NewHealthHandler())

	return NewLoggingMiddleware(log)(mux)
}
