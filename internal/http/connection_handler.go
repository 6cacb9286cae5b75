package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/postpilot/internal/application"
	"github.com/example/postpilot/internal/persistence"
)

type connectionService interface {
	BeginConnect(ctx context.Context, principal application.Principal) (string, error)
	CompleteConnect(ctx context.Context, params application.CompleteConnectParams) (persistence.LinkedInConnection, error)
	Status(ctx context.Context, principal application.Principal) (application.ConnectionStatus, error)
	Disconnect(ctx context.Context, principal application.Principal) error
}

type ConnectionHandler struct {
	service   connectionService
	responder responder
	logger    *slog.Logger
}

func NewConnectionHandler(service connectionService, logger *slog.Logger) *ConnectionHandler {
	base := defaultLogger(logger)
	return &ConnectionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConnectionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConnectionHandler", operation, attrs...)
}

// Connect redirects the authenticated caller to the provider
// authorization page with a signed state token.
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	authURL, err := h.service.BeginConnect(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Connect", "user_id", principal.UserID).ErrorContext(r.Context(), "connect initiation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the OAuth round-trip. The provider redirects the
// popup here, so the response is a small HTML page that reports the
// result to the opener window via postMessage and closes itself.
func (h *ConnectionHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		h.log(r.Context(), "Callback").ErrorContext(r.Context(), "provider denied authorization", "provider_error", providerErr)
		h.writeCallbackPage(r.Context(), w, false, "LinkedIn authorization was denied")
		return
	}

	conn, err := h.service.CompleteConnect(r.Context(), application.CompleteConnectParams{
		State: query.Get("state"),
		Code:  query.Get("code"),
	})
	if err != nil {
		h.log(r.Context(), "Callback").ErrorContext(r.Context(), "connect completion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.writeCallbackPage(r.Context(), w, false, "connecting the LinkedIn account failed")
		return
	}

	h.log(r.Context(), "Callback", "user_id", conn.UserID, "member_id", conn.MemberID).InfoContext(r.Context(), "linkedin account connected")
	h.writeCallbackPage(r.Context(), w, true, "LinkedIn account connected")
}

func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	status, err := h.service.Status(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Status", "user_id", principal.UserID).ErrorContext(r.Context(), "connection status failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := connectionStatusResponse{
		Connected: status.Connected,
		Expired:   status.Expired,
	}
	if status.Connected {
		resp.MemberID = status.MemberID
		resp.MemberName = status.MemberName
		resp.MemberEmail = status.MemberEmail
		resp.MemberPicture = status.MemberPicture
		expiresAt := status.ExpiresAt.UTC().Format(time.RFC3339Nano)
		resp.ExpiresAt = &expiresAt
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if err := h.service.Disconnect(r.Context(), principal); err != nil {
		h.log(r.Context(), "Disconnect", "user_id", principal.UserID).ErrorContext(r.Context(), "disconnect failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Disconnect", "user_id", principal.UserID).InfoContext(r.Context(), "linkedin account disconnected")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// writeCallbackPage renders the popup result page. The message payload
// is JSON encoded with HTML escaping enabled so attacker controlled
// strings cannot break out of the script block, and the visible text is
// HTML escaped separately.
func (h *ConnectionHandler) writeCallbackPage(ctx context.Context, w http.ResponseWriter, success bool, message string) {
	payload, err := json.Marshal(callbackMessage{
		Type:    "linkedin-connect",
		Success: success,
		Message: message,
	})
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	status := http.StatusOK
	if !success {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)

	page := fmt.Sprintf(callbackPageTemplate, payload, html.EscapeString(message))
	if _, err := w.Write([]byte(page)); err != nil {
		h.log(ctx, "Callback").ErrorContext(ctx, "failed to write callback page", "error", err)
	}
}

type callbackMessage struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const callbackPageTemplate = `<!DOCTYPE html>
<html>
<head><title>LinkedIn Connection</title></head>
<body>
<script>
(function () {
  var payload = %s;
  if (window.opener) {
    window.opener.postMessage(payload, window.location.origin);
  }
  window.close();
})();
</script>
<p>%s</p>
<p>You can close this window.</p>
</body>
</html>
`

type connectionStatusResponse struct {
	Connected     bool    `json:"connected"`
	MemberID      string  `json:"member_id,omitempty"`
	MemberName    string  `json:"member_name,omitempty"`
	MemberEmail   string  `json:"member_email,omitempty"`
	MemberPicture string  `json:"member_picture,omitempty"`
	ExpiresAt     *string `json:"expires_at,omitempty"`
	Expired       bool    `json:"expired"`
}
