package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/countdown"
	"github.com/jgivc/harmonyfest/internal/entity"
)

const (
	EventTick    = "tick"
	EventReached = "reached"

	maxSubscribeBody = 4 << 10
)

type PageService interface {
	GetPage(ctx context.Context) (string, string, error)
	Info(ctx context.Context) (*entity.PageInfo, error)
}

type BuildService interface {
	Build(ctx context.Context) (*entity.Page, error)
}

type CounterService interface {
	Stats(ctx context.Context) (*entity.Stats, error)
}

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (*entity.Subscriber, error)
}

type CountdownService interface {
	Snapshot() (countdown.Sample, error)
	Watch(ctx context.Context, onTick countdown.TickFunc) (*countdown.Handle, error)
}

// SampleView is the wire form of a countdown sample.
type SampleView struct {
	countdown.Sample
	Display []countdown.Field `json:"display"`
	Text    string            `json:"text"`
}

func NewSampleView(s countdown.Sample) SampleView {
	return SampleView{
		Sample:  s,
		Display: s.Fields(),
		Text:    s.String(),
	}
}

func NewPageHandler(srv PageService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PageHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		content, hash, err := srv.GetPage(r.Context())
		if err != nil {
			switch {
			case errors.Is(err, common.ErrPageNotFoundError):
				http.Error(w, "Page is not built yet", http.StatusNotFound)
			default:
				log.Error("Cannot get page", slog.Any("error", err))
				http.Error(w, "Cannot get page", http.StatusInternalServerError)
			}

			return
		}

		etag := fmt.Sprintf("%q", hash)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")

		if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, content)
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}

	return false
}

func NewInfoHandler(srv PageService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "InfoHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		info, err := srv.Info(r.Context())
		if err != nil {
			switch {
			case errors.Is(err, common.ErrPageNotFoundError):
				http.Error(w, "Page is not built yet", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get page info", http.StatusInternalServerError)
			}

			return
		}

		writeJSON(w, http.StatusOK, info, log)
	}
}

// NewBuildHandler rebuilds the page. The build outlives the request so a
// client hanging up does not leave a half written version behind.
func NewBuildHandler(srv BuildService, timeout time.Duration, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "BuildHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		page, err := srv.Build(ctx)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrBuildAlreadyStarted):
				http.Error(w, "Build process has already started", http.StatusConflict)
			case errors.Is(err, common.ErrNoSectionsFoundError):
				http.Error(w, "No sections found", http.StatusUnprocessableEntity)
			default:
				http.Error(w, "Cannot build page", http.StatusInternalServerError)
			}

			return
		}

		log.Info("Page rebuilt", slog.String("hash", page.Hash))

		writeJSON(w, http.StatusOK, &entity.PageInfo{
			Hash:     page.Hash,
			Sections: page.Sections,
			BuiltAt:  page.BuiltAt,
		}, log)
	}
}

func NewStatsHandler(srv CounterService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "StatsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := srv.Stats(r.Context())
		if err != nil {
			http.Error(w, "Cannot get stats", http.StatusInternalServerError)

			return
		}

		writeJSON(w, http.StatusOK, stats, log)
	}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func NewSubscribeHandler(srv NewsletterService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SubscribeHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSubscribeBody)

		email, err := readEmail(r)
		if err != nil {
			log.Info("Bad subscribe request", slog.Any("error", err))
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		s, err := srv.Subscribe(r.Context(), email)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrInvalidEmail):
				http.Error(w, "Invalid email address", http.StatusBadRequest)
			case errors.Is(err, common.ErrAlreadySubscribed):
				http.Error(w, "Already subscribed", http.StatusConflict)
			default:
				http.Error(w, "Cannot subscribe", http.StatusInternalServerError)
			}

			return
		}

		writeJSON(w, http.StatusCreated, s, log)
	}
}

func readEmail(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("cannot decode body: %w", err)
		}

		return req.Email, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("cannot parse form: %w", err)
	}

	return r.PostForm.Get("email"), nil
}

func NewCountdownHandler(srv CountdownService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "CountdownHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		s, err := srv.Snapshot()
		if err != nil {
			http.Error(w, "Countdown is not available", http.StatusServiceUnavailable)

			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, NewSampleView(s), log)
	}
}

// NewCountdownStreamHandler sends the countdown as Server-Sent Events: the
// current sample right away, then one per engine tick. The stream ends after
// the reached sample or when the client goes away.
func NewCountdownStreamHandler(srv CountdownService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "CountdownStreamHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		s, err := srv.Snapshot()
		if err != nil {
			http.Error(w, "Countdown is not available", http.StatusServiceUnavailable)

			return
		}

		rc := http.NewResponseController(w)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if err := writeEvent(w, rc, s); err != nil {
			log.Debug("Client is gone", slog.Any("error", err))

			return
		}

		if s.Reached {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		h, err := srv.Watch(ctx, func(s countdown.Sample) {
			if err := writeEvent(w, rc, s); err != nil {
				log.Debug("Client is gone", slog.Any("error", err))
				cancel()
			}
		})
		if err != nil {
			return
		}
		defer func() {
			h.Cancel()
			<-h.Done()
		}()

		select {
		case <-ctx.Done():
		case <-h.Done():
			if err := h.Err(); err != nil {
				log.Error("Countdown stopped", slog.Any("error", err))
			}
		}
	}
}

func writeEvent(w io.Writer, rc *http.ResponseController, s countdown.Sample) error {
	data, err := json.Marshal(NewSampleView(s))
	if err != nil {
		return fmt.Errorf("cannot marshal sample: %w", err)
	}

	event := EventTick
	if s.Reached {
		event = EventReached
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}

	return rc.Flush()
}

func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Cannot encode response", slog.Any("error", err))
	}
}
