package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

type topicsResponse struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Status()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !st.Running() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write([]byte(st.Phase.String()))
}

func (s *Server) apiStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.status.Status())
}

func (s *Server) apiTopics(w http.ResponseWriter, _ *http.Request) {
	topics := s.status.Status().ReplicatedTopics
	if topics == nil {
		topics = []string{}
	}
	utils.Logger.Debug("api list replicated topics", "count", len(topics))
	writeJSON(w, topicsResponse{Topics: topics, Count: len(topics)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Logger.Error("encode response failed", "err", err)
	}
}
