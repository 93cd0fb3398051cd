package ws

import (
	"context"
	"errors"
	"net/http"

	"nutrihub/internal/channels"
	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var errNoToken = errors.New("no token provided")

// Server upgrades authenticated clients onto the realtime hub and
// drives presence transitions from transport-level connect/disconnect.
type Server struct {
	hub      *realtime.Hub
	emitter  *realtime.Emitter
	authz    *channels.Authorizer
	store    *presence.Store
	sendBuf  int
	logger   *logrus.Entry
	upgrader websocket.Upgrader
}

// NewServer wires the websocket endpoint
func NewServer(hub *realtime.Hub, emitter *realtime.Emitter, authz *channels.Authorizer, store *presence.Store, sendBuf int, logger *logrus.Logger) *Server {
	if sendBuf <= 0 {
		sendBuf = 256
	}
	return &Server{
		hub:     hub,
		emitter: emitter,
		authz:   authz,
		store:   store,
		sendBuf: sendBuf,
		logger:  logger.WithField("component", "ws-server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Cross-origin access is controlled at the proxy
				return true
			},
		},
	}
}

// HandleWS is the gin handler for GET /ws
func (s *Server) HandleWS(c *gin.Context) {
	claims, err := authenticate(c.Request)
	if err != nil {
		s.logger.Warnf("Handshake rejected from %s: %v", c.Request.RemoteAddr, err)
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Errorf("Upgrade failed for user %d: %v", claims.UID, err)
		return
	}

	socketID := uuid.NewString()
	client := &Conn{
		server: s,
		ws:     conn,
		send:   make(chan []byte, s.sendBuf),
		principal: channels.Principal{
			ID:   claims.UID,
			Name: claims.Name,
			Role: claims.Role,
		},
		user: realtime.UserRef{
			ID:        claims.UID,
			Name:      claims.Name,
			AvatarURL: claims.AvatarURL,
		},
		socketID: socketID,
		logger: s.logger.WithFields(logrus.Fields{
			"user_id":   claims.UID,
			"socket_id": socketID,
		}),
	}

	// The transport-level connect is the authoritative online signal
	s.store.SetOnline(context.Background(), client.user, socketID)
	client.logger.Info("Client connected")

	client.sendControl(controlFrame{Type: "connected", SocketID: socketID})

	go client.writePump()
	go client.readPump()
}
