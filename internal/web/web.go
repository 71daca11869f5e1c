// Package web serves a small read-only status API next to the bot:
// /health for liveness, /api/status for feed state, /api/events for a JSON
// view of upcoming occurrences.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"agendabot/internal/agenda"
	"agendabot/internal/config"
	"agendabot/internal/ics"
	appLog "agendabot/internal/log"
)

// Server exposes the status endpoints.
type Server struct {
	cfg   *config.Config
	store *ics.Store
	svc   *agenda.Service
	mux   *http.ServeMux
}

// NewServer constructs a Server reading from store and svc.
func NewServer(cfg *config.Config, store *ics.Store, svc *agenda.Service) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		svc:   svc,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		h = s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("status server listening", "listen", "http://"+s.cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware protects everything except /health, which stays open
// for liveness probes.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="agendabot", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	FeedPresent bool       `json:"feed_present"`
	LastFetch   *time.Time `json:"last_fetch,omitempty"`
	Channels    int        `json:"channels"`
	Timezone    string     `json:"timezone"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Channels: len(s.cfg.Discord.Channels),
		Timezone: s.cfg.Timezone,
	}
	if t, ok := s.store.LastUpdate(); ok {
		resp.FeedPresent = true
		resp.LastFetch = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

type eventResponse struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
}

// handleEvents returns the occurrences for the next N days (default 7,
// capped at 31) as JSON.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		days = n
	}
	if days > 31 {
		days = 31
	}

	now := time.Now().In(s.svc.Location())
	occs, err := s.svc.Filter(agenda.DaysFrom(now, days))
	if err != nil {
		if errors.Is(err, agenda.ErrFeedUnavailable) {
			http.Error(w, "feed unavailable", http.StatusServiceUnavailable)
			return
		}
		appLog.Error("events query failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]eventResponse, 0, len(occs))
	for _, occ := range occs {
		out = append(out, eventResponse{
			Summary:     occ.Summary,
			Description: occ.Description,
			Location:    occ.Location,
			Start:       occ.Start,
			End:         occ.End,
			AllDay:      occ.AllDay,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("json encode failed", err)
	}
}
