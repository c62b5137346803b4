package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/cafe-app/kds"
	"github.com/yeremiapane/cafe-app/middlewares"
)

type KDSController struct {
	hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts websocket upgrades from the given origins; an
// empty list or "*" accepts any origin.
func NewKDSController(hub *kds.Hub, origins []string) *KDSController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &KDSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
			},
		},
	}
}

// KDSHandler -> GET /ws/orders, staff and admin only (checked by
// WebSocketAuthMiddleware).
func (kc *KDSController) KDSHandler(c *gin.Context) {
	principal := middlewares.MustPrincipal(c)
	if principal == nil {
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.hub.RegisterClient(ws, principal.Role)

	// the board is receive only; reading detects disconnects
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	kc.hub.UnregisterClient(ws)
}
