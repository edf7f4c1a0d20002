package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/katevors/figvault/internal/auth"
	"github.com/katevors/figvault/internal/catalog"
	"github.com/katevors/figvault/internal/metrics"
	"github.com/katevors/figvault/internal/mfc"
)

// Scraper looks up a normalized figure record for an item id.
type Scraper interface {
	Lookup(ctx context.Context, id string) (mfc.Record, error)
}

var numericItemID = regexp.MustCompile(`^\d+$`)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	username := auth.SanitizeUsername(body.Username)
	password := auth.SanitizePassword(body.Password)
	if username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Enter both your username and password.")
		return
	}

	if s.verifier == nil {
		writeError(w, http.StatusInternalServerError, "Admin password is not configured.")
		return
	}

	if !s.verifier.CredentialsValid(username, password) {
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	token, _ := s.verifier.CreateSessionToken(s.verifier.Username())
	http.SetCookie(w, s.verifier.SessionCookie(token, auth.SecureCookie(r)))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	secure := auth.SecureCookie(r)
	http.SetCookie(w, auth.ExpiredSessionCookie(secure))
	if !secure {
		// A previous session may have been issued with the Secure attribute;
		// expire that variant too so the browser drops both.
		http.SetCookie(w, auth.ExpiredSessionCookie(true))
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	result := s.verifier.Authorize(r)
	if !result.OK {
		s.unauthorized(w, r, result)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doc := s.store.Load(r.Context())
		metrics.SetCollectionEntries("owned", len(doc.Owned))
		metrics.SetCollectionEntries("wishlist", len(doc.Wishlist))
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPut:
		result := s.verifier.Authorize(r)
		if !result.OK {
			s.unauthorized(w, r, result)
			return
		}
		var payload catalog.Collection
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body.")
			return
		}
		saved := s.store.Save(r.Context(), payload)
		metrics.SetCollectionEntries("owned", len(saved.Owned))
		metrics.SetCollectionEntries("wishlist", len(saved.Wishlist))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"updatedAt": saved.UpdatedAt,
		})
	case http.MethodOptions:
		w.Header().Set("Allow", "GET, PUT, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMFC(w http.ResponseWriter, r *http.Request) {
	result := s.verifier.Authorize(r)
	if !result.OK {
		s.unauthorized(w, r, result)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	item := r.URL.Query().Get("item")
	if !numericItemID.MatchString(item) {
		writeError(w, http.StatusBadRequest, "A numeric MyFigureCollection item number is required.")
		return
	}

	record, err := s.scraper.Lookup(r.Context(), item)
	if err != nil {
		status, msg, outcome := classifyLookupError(err)
		metrics.ObserveScrapeLookup(outcome)
		s.logger.Warn("item lookup failed",
			zap.String("item", item),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		w.Header().Set("X-Error", msg)
		writeError(w, status, msg)
		return
	}

	metrics.ObserveScrapeLookup("success")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, record)
}

func classifyLookupError(err error) (status int, msg, outcome string) {
	switch {
	case errors.Is(err, mfc.ErrNotFound):
		return http.StatusNotFound, "MyFigureCollection responded with status 404", "not_found"
	case errors.Is(err, mfc.ErrChallenge):
		return http.StatusServiceUnavailable,
			"MyFigureCollection is blocking automated lookups right now. Try again later.",
			"challenge"
	case errors.Is(err, mfc.ErrEmpty):
		return http.StatusBadGateway, "Unable to parse the MyFigureCollection item page.", "empty"
	default:
		return http.StatusBadGateway, "MyFigureCollection could not be reached.", "upstream"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
