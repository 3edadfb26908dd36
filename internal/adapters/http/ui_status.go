package httpserver

import (
	"net/http"

	"github.com/OliveiraNt/maned-mirror/internal/adapters/http/ui/templates/pages"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

func (s *Server) uiHome(w http.ResponseWriter, r *http.Request) {
	utils.Logger.Debug("render status page")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.StatusPage(s.status.Status()).Render(r.Context(), w); err != nil {
		utils.Logger.Error("render status page failed", "err", err)
	}
}
