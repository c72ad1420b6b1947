package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wychoong/busboard/internal/device"
)

// handleInstall is the entry point the hub redirects new users through.
//
// The hub supplies an authorization code as "token" and a callback URL
// to return the user to. The code is exchanged for an access token on a
// best-effort basis; exchange failures are logged but never block the
// redirect, because the hub treats a non-302 response as a failed
// installation.
func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("token")
	callbackURL := r.URL.Query().Get("installation_callback_url")
	if code == "" || callbackURL == "" {
		writeBadRequest(w, "missing token or installation_callback_url")
		return
	}

	if _, err := s.oauth.Exchange(r.Context(), code); err != nil {
		s.logger.Warn("token exchange failed during install",
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}

	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// installedPayload is the webhook body the hub posts after a successful
// installation.
type installedPayload struct {
	User struct {
		UUID string `json:"uuid"`
	} `json:"user"`
}

// handleInstalled records a completed installation.
//
// The hub posts the user's UUID in the body and the plugin access token
// as a bearer header. The upsert keeps any stop codes the user already
// configured, so a reinstall does not reset their settings.
func (s *Server) handleInstalled(w http.ResponseWriter, r *http.Request) {
	var payload installedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if payload.User.UUID == "" {
		writeBadRequest(w, "missing user uuid")
		return
	}

	token := bearerToken(r)
	if err := s.store.Upsert(r.Context(), payload.User.UUID, token); err != nil {
		s.logger.Error("failed to record installation",
			"user_uuid", payload.User.UUID,
			"error", err,
		)
		writeInternalError(w, "failed to record installation")
		return
	}

	s.logger.Info("installation recorded", "user_uuid", payload.User.UUID)
	w.WriteHeader(http.StatusNoContent)
}

// uninstalledPayload is the webhook body the hub posts when a user
// removes the plugin.
type uninstalledPayload struct {
	UserUUID string `json:"user_uuid"`
}

// handleUninstalled removes a device record. Unknown or missing UUIDs
// succeed silently, and so does an undecodable body: cleanup must never
// fail visibly to the hub, which retries non-2xx responses against a
// state that is already what it wants.
func (s *Server) handleUninstalled(w http.ResponseWriter, r *http.Request) {
	var payload uninstalledPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("undecodable uninstall body, treating as no-op", "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if payload.UserUUID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.store.Delete(r.Context(), payload.UserUUID); err != nil && !errors.Is(err, device.ErrDeviceNotFound) {
		s.logger.Error("failed to delete device",
			"user_uuid", payload.UserUUID,
			"error", err,
		)
		writeInternalError(w, "failed to delete device")
		return
	}

	s.logger.Info("uninstallation recorded", "user_uuid", payload.UserUUID)
	w.WriteHeader(http.StatusNoContent)
}

// bearerToken extracts the token from an Authorization: Bearer header,
// returning empty when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}
