package interview

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/devdm/interview-platform/internal/auth/jwt"
	"github.com/devdm/interview-platform/internal/server"
	httperrors "github.com/devdm/interview-platform/pkg/http/errors"
	"github.com/devdm/interview-platform/pkg/http/ws"
)

// WSHandler authenticates and upgrades interview socket connections.
type WSHandler struct {
	handler *Handler
	tokens  *jwt.Manager
}

func NewWSHandler(handler *Handler, tokens *jwt.Manager) *WSHandler {
	return &WSHandler{handler: handler, tokens: tokens}
}

// HandleWebSocket upgrades the connection after validating the caller's
// token from the cookie, Authorization header, or query string.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Missing token")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.handler.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.handler.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.handleConnection(conn, claims)
}

func (h *WSHandler) handleConnection(conn *websocket.Conn, claims *jwt.Claims) {
	userID := claims.UserID
	logger := h.handler.logger.With().Int64("user_id", userID).Logger()

	wsConn := ws.NewConnection(conn, logger)
	h.handler.hub.RegisterConnection(userID, wsConn)
	logger.Info().Msg("candidate connected")

	wsConn.Send(ws.NewMessage(ws.TypeAuthSuccess, ws.AuthSuccessPayload{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
	}))

	go wsConn.WritePump()

	wsConn.ReadPump(
		func(msg ws.Message) error {
			return h.handler.handleMessage(context.Background(), userID, msg)
		},
		func() {
			h.handler.sendError(userID, "", httperrors.ErrCodeInvalidPayload, "Malformed message")
		},
	)

	h.handler.service.Disconnect(userID)
	h.handler.hub.UnregisterConnection(userID, wsConn)
	logger.Info().Msg("candidate disconnected")
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
