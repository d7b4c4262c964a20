package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jupiterclapton/cercle/internal/core/ports"
)

const (
	writeTimeout = 10 * time.Second

	// keepalive : un client qui disparaît sans FIN (mobile, NAT) ne doit pas
	// laisser une entrée fantôme dans le registre jusqu'au timeout kernel
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = (defaultPongWait * 9) / 10
)

// Authenticator valide le token du handshake et rend l'userID.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// Server est la passerelle temps réel. Son seul travail : authentifier le
// handshake, tenir le cycle de vie de la connexion et garantir exactement
// un Register / un Unregister par connexion physique. Le contenu poussé
// vient du bus, jamais d'ici.
type Server struct {
	registry ports.ConnectionRegistry
	auth     Authenticator
	upgrader websocket.Upgrader

	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewServer(registry ports.ConnectionRegistry, auth Authenticator) *Server {
	return &Server{
		registry: registry,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// le CORS applicatif vit dans la couche HTTP amont
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
	}
}

// Handle upgrade la requête et tient la pompe de lecture jusqu'au
// disconnect. Auth AVANT upgrade : pas de socket anonyme, comme le reste
// de l'API (actorId toujours fourni).
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := s.auth.Authenticate(token)
	if err != nil {
		slog.Warn("socket auth failed", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	wc := &wsConn{conn: conn}
	connID := uuid.New().String()
	s.registry.Register(userID, connID, wc)
	slog.Info("🟢 socket connected", "user", userID, "conn", connID)

	done := make(chan struct{})
	go s.keepAlive(wc, done)

	defer func() {
		close(done)
		s.registry.Unregister(userID, connID)
		conn.Close()
		slog.Info("🔴 socket disconnected", "user", userID, "conn", connID)
	}()

	// chaque pong repousse la deadline ; un client muet finit en erreur de
	// lecture et sort proprement du registre
	conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	// Pompe de lecture : le canal est descendant (push only), on ne lit que
	// pour détecter la fermeture et servir les ping/pong.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) keepAlive(c *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// extractToken : query param (clients navigateur) ou header Authorization.
func extractToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// wsConn sérialise les writes : gorilla n'autorise qu'un writer concurrent.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}
