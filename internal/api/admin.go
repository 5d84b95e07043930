package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/thesapansharma/Fittr/internal/models"
)

// AdminTokenHeader carries the admin credential.
const AdminTokenHeader = "X-Admin-Token"

// DefaultAdminListLimit bounds user and message listings.
const DefaultAdminListLimit = 100

// requireAdmin wraps a handler with token authentication. With no token
// configured the admin surface is disabled entirely.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeJSONResponse(w, http.StatusForbidden, models.Error("Admin API disabled"))
			return
		}
		provided := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.adminToken)) != 1 {
			slog.Warn("Admin request rejected", "path", r.URL.Path)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Unauthorized"))
			return
		}
		next(w, r)
	}
}

// adminOverviewHandler returns store-wide counts.
func (s *Server) adminOverviewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	counts, err := s.store.Counts()
	if err != nil {
		slog.Error("Admin overview failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(counts))
}

// adminUsersHandler lists the most recent user profiles.
func (s *Server) adminUsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	limit := DefaultAdminListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	users, err := s.store.ListProfiles(limit)
	if err != nil {
		slog.Error("Admin user listing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(users))
}

// adminMessagesHandler lists recent message logs, optionally filtered by
// identity.
func (s *Server) adminMessagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	limit := DefaultAdminListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	var userID int64
	if identity := r.URL.Query().Get("identity"); identity != "" {
		profile, err := s.store.FindProfile(identity)
		if err != nil {
			slog.Error("Admin message listing profile lookup failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
			return
		}
		if profile == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown identity"))
			return
		}
		userID = profile.ID
	}
	messages, err := s.store.MessagesByUser(userID, limit)
	if err != nil {
		slog.Error("Admin message listing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(messages))
}

type simulateRequest struct {
	Identity string `json:"identity"`
	Message  string `json:"message"`
}

// adminSimulateHandler runs one message through the coach engine and returns
// the reply without sending anything over the transport.
func (s *Server) adminSimulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	if req.Identity == "" || req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("identity and message are required"))
		return
	}
	reply, err := s.engine.HandleIncoming(r.Context(), req.Identity, req.Message)
	if err != nil {
		slog.Error("Admin simulate failed", "identity", req.Identity, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Simulation failed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"reply": reply}))
}
