// Package api exposes the HTTP interface for the catalogue service.
package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/katevors/figvault/internal/assets"
	"github.com/katevors/figvault/internal/auth"
	"github.com/katevors/figvault/internal/metrics"
	"github.com/katevors/figvault/internal/store"
)

// publicAdminAssets lists the login page and its dependencies. Serving them
// without authorization avoids a redirect loop on the login screen itself.
var publicAdminAssets = map[string]struct{}{
	"/admin/login.html": {},
	"/admin/login.css":  {},
	"/admin/login.js":   {},
}

// Server wires HTTP handlers to the verifier, the collection store, the
// scraper, and the static asset tree.
type Server struct {
	router   chi.Router
	verifier *auth.Verifier
	store    *store.CollectionStore
	scraper  Scraper
	assets   *assets.Handler
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	verifier *auth.Verifier,
	collections *store.CollectionStore,
	scraper Scraper,
	staticAssets *assets.Handler,
	logger *zap.Logger,
) *Server {
	s := &Server{
		verifier: verifier,
		store:    collections,
		scraper:  scraper,
		assets:   staticAssets,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(trailingSlashMiddleware)
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.HandleFunc("/api/login", s.handleLogin)
	r.HandleFunc("/api/logout", s.handleLogout)
	r.HandleFunc("/api/auth-check", s.handleAuthCheck)
	r.HandleFunc("/api/collection", s.handleCollection)
	r.HandleFunc("/api/mfc", s.handleMFC)

	r.HandleFunc("/admin", s.handleAdminRoot)
	r.HandleFunc("/admin/*", s.handleAdmin)

	r.NotFound(s.serveAsset)
	r.MethodNotAllowed(s.serveAsset)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	s.assets.ServeHTTP(w, r)
}

func (s *Server) handleAdminRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/login.html", http.StatusFound)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/admin/login" {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/admin/login.html"
		s.assets.ServeHTTP(w, r2)
		return
	}
	if _, public := publicAdminAssets[r.URL.Path]; public {
		s.assets.ServeHTTP(w, r)
		return
	}

	result := s.verifier.Authorize(r)
	if !result.OK {
		if isHTMLRequest(r) && !result.BasicTried {
			s.redirectToLogin(w, r, result)
			return
		}
		s.unauthorized(w, r, result)
		return
	}
	s.assets.ServeHTTP(w, r)
}

func isHTMLRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// redirectToLogin sends browser navigation to the login page, carrying the
// original path and query so the panel can bounce back after sign-in.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, result auth.Result) {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	if result.StaleCookie {
		http.SetCookie(w, auth.ExpiredSessionCookie(auth.SecureCookie(r)))
	}
	location := "/admin/login.html?redirect=" + url.QueryEscape(target)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, result auth.Result) {
	if result.StaleCookie {
		http.SetCookie(w, auth.ExpiredSessionCookie(auth.SecureCookie(r)))
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="`+auth.BasicRealm+`", charset="UTF-8"`)
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
