package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

const maxControlBody = 64 << 10

type ControlResponse struct {
	Delivered int `json:"delivered"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxControlBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := control.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n := s.Hub.Dispatch(msg)
	if s.Log != nil {
		s.Log.Infof("Control %s delivered to %d session(s)", msg, n)
	}
	writeJSON(w, ControlResponse{Delivered: n})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Hub.Statuses())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no settings store", http.StatusServiceUnavailable)
		return
	}
	ids := platforms.All
	if p := r.URL.Query().Get("platform"); p != "" {
		id, err := platforms.Parse(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ids = []platforms.ID{id}
	}

	out := make(map[platforms.ID]settings.Settings, len(ids))
	for _, id := range ids {
		st, err := s.DB.LoadSettings(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[id] = st
	}
	writeJSON(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no settings store", http.StatusServiceUnavailable)
		return
	}
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
