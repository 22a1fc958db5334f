package ws

import (
	"net/http"
	"slices"

	"chessroom/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades the request and hands the connection to the hub. Browser
// origins must be listed in allowedOrigins; "*" allows any.
func HandleWS(hub *Hub, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "remote", c.ClientIP(), "error", err)
			return
		}

		client := NewClient(conn, hub)
		go client.Run()
	}
}

func originAllowed(origin string, allowed []string) bool {
	// non-browser clients send no Origin
	if origin == "" || len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
