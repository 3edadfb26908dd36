package httpserver

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/OliveiraNt/maned-mirror/internal/adapters/http/mid"
	"github.com/OliveiraNt/maned-mirror/internal/adapters/http/ui"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

const defaultPushInterval = 2 * time.Second

// StatusSource provides the replication status served over HTTP.
type StatusSource interface {
	Status() domain.Status
}

// Server provides the status API and page of the mirror.
type Server struct {
	status       StatusSource
	pushInterval time.Duration
	httpServer   *http.Server
}

// New creates a new HTTP server instance.
func New(status StatusSource) *Server {
	return &Server{status: status, pushInterval: defaultPushInterval}
}

// Router builds the chi router with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(mid.I18n)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			dur := time.Since(start)
			utils.Logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", dur.String(),
			)
		})
	})

	static, err := fs.Sub(ui.StaticFiles, "static")
	if err != nil {
		panic(err)
	}
	cacheDuration := 7 * 24 * time.Hour
	r.Handle("/static/*", http.StripPrefix("/static/", StaticWithCache(static, cacheDuration)))

	r.Get("/lang", ChangeLanguage)
	r.Get("/healthz", s.healthz)
	r.Get("/", s.uiHome)

	r.Get("/api/status", s.apiStatus)
	r.Get("/api/topics", s.apiTopics)
	r.Get("/api/ws", s.wsStatus)

	return r
}

// Run serves on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	utils.Logger.Info("HTTP server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// StaticWithCache serves files from fsys applying a public max-age cache header.
func StaticWithCache(fsys fs.FS, maxAge time.Duration) http.HandlerFunc {
	files := http.FileServerFS(fsys)
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := fs.Stat(fsys, r.URL.Path)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
		files.ServeHTTP(w, r)
	}
}

// ChangeLanguage changes the language preference via a query parameter and sets a cookie.
func ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "lang",
		Value:    lang,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   31536000,
	})

	ref := r.Header.Get("Referer")
	if ref == "" {
		ref = "/"
	}

	http.Redirect(w, r, ref, http.StatusSeeOther)
}
