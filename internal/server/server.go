package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/session"
	"github.com/sw33tLie/shortscroll/pkg/storage"
)

// Controller is the part of session.Hub the server needs.
type Controller interface {
	Dispatch(msg control.Message) int
	Statuses() []session.Status
}

type Server struct {
	Hub      Controller
	DB       *storage.DB
	Username string
	Password string
	Log      logging.Logger
}

func New(hub Controller, db *storage.DB, user, pass string) *Server {
	return &Server{
		Hub:      hub,
		DB:       db,
		Username: user,
		Password: pass,
	}
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("POST /api/control", s.handleControl)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/settings", s.handleSettings)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// Status page
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s.basicAuth(mux)
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	log := logging.OrNop(s.Log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("Control server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
