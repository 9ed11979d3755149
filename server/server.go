package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/server/connection"
	"github.com/tokenarena/poker/server/events"
	"github.com/tokenarena/poker/server/handlers"
)

const pingInterval = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checks
	},
}

// Server represents the WebSocket server
type Server struct {
	registry   *domain.Registry
	connMgr    *connection.Manager
	cmdRouter  *handlers.CommandRouter
	dispatcher *events.Dispatcher
	logger     *zap.Logger
}

// TableResponse represents a table in API responses
type TableResponse struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	Phase       string `json:"phase"`
	Pot         int    `json:"pot"`
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// NewServer creates a new poker WebSocket server. The dispatcher is
// registered with the registry here, before any table exists.
func NewServer(cfg Config, registry *domain.Registry, ledger domain.Ledger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	connMgr := connection.NewManager()
	dispatcher := events.NewDispatcher(registry, connMgr, logger)
	cmdRouter := handlers.NewCommandRouter(registry, connMgr, ledger, cfg.DefaultBuyIn, logger)

	registry.AddEventHandler(dispatcher.HandleEvent)

	return &Server{
		registry:   registry,
		connMgr:    connMgr,
		cmdRouter:  cmdRouter,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start begins the server on the specified port
func (s *Server) Start(port string) error {
	go s.connMgr.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/api/tables", corsMiddleware(s.handleGetTables))

	s.logger.Info("starting server", zap.String("port", port))
	return http.ListenAndServe("0.0.0.0:"+port, nil)
}

// handleWebSocket handles incoming WebSocket connections. The player
// identity rides on the query string; reconnecting with the same playerId
// reclaims any seats it holds.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId query parameter is required", http.StatusBadRequest)
		return
	}
	playerName := r.URL.Query().Get("playerName")
	if playerName == "" {
		playerName = playerID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &connection.Client{
		ID:         uuid.NewString(),
		Conn:       conn,
		Send:       make(chan []byte, 256),
		PlayerID:   playerID,
		PlayerName: playerName,
	}

	s.logger.Info("client connected",
		zap.String("remoteAddr", r.RemoteAddr),
		zap.String("clientID", client.ID),
		zap.String("playerID", playerID))

	s.connMgr.Register <- client

	go s.readPump(client)
	go s.writePump(client)
}

// readPump reads messages from the WebSocket connection
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.cmdRouter.HandleDisconnect(client)
		s.connMgr.Unregister <- client
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket read failed", zap.String("clientID", client.ID), zap.Error(err))
			}
			break
		}

		// Rejections are reported to the client by the router; nothing
		// more to do here.
		_ = s.cmdRouter.HandleCommand(client, message)
	}
}

// writePump sends messages to the WebSocket connection
func (s *Server) writePump(client *connection.Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Error("websocket write failed", zap.String("clientID", client.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleGetTables returns a list of public tables. Private tables are
// addressed by invite code only and never listed.
func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tables := s.registry.Tables()
	tableResponses := make([]TableResponse, 0, len(tables))

	for _, table := range tables {
		if table.Private {
			continue
		}
		view := table.PublicView()
		tableResponses = append(tableResponses, TableResponse{
			ID:          view.TableID,
			PlayerCount: len(view.Seats),
			Phase:       string(view.Phase),
			Pot:         view.Pot,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tableResponses)
}
