package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

type gamePlay interface {
	CreateGame(ctx context.Context, playerID, gameType string, origin entity.Coordinate, orientation string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string, origin entity.Coordinate, orientation string) (*entity.Game, error)
	Attack(ctx context.Context, playerID string, target entity.Coordinate) (*entity.Game, battleship.Outcome, error)
	Reset(ctx context.Context, playerID string) error

	GameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	SetPolling(ctx context.Context, playerID string, enabled bool, interval time.Duration) error
	Subscribe(fn func(*entity.Game)) func()
}

type playerService interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
}

// conn wraps a websocket connection with a write lock: gorilla allows one
// concurrent writer per connection.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (that *conn) writeJSON(v any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.ws.WriteJSON(v)
}

type Server struct {
	logger   *slog.Logger
	gamePlay gamePlay
	players  playerService

	pollInterval time.Duration
	upgrader     websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*conn

	handlers map[string]func(ctx context.Context, playerID string, message *Message, c *conn) error
}

func New(logger *slog.Logger, gamePlay gamePlay, players playerService, pollInterval time.Duration) *Server {
	server := &Server{
		logger:       logger.With("component", "websocket"),
		gamePlay:     gamePlay,
		players:      players,
		pollInterval: pollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		connections: make(map[string]*conn),
		handlers:    make(map[string]func(context.Context, string, *Message, *conn) error),
	}

	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameAttack] = server.handleAttack
	server.handlers[actionGameReset] = server.handleReset
	server.handlers[actionPollingSet] = server.handlePollingSet
	server.handlers[actionGameState] = server.handleGameState

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	unsubscribe := that.gamePlay.Subscribe(that.pushGameUpdate)
	defer unsubscribe()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  0, // connections are long-lived
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handleConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleConnection")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws}

	playerID, err := that.handleConnect(ctx, c, req.URL.Query().Get("player_id"))
	if err != nil {
		log.Error("failed to connect player", "error", err)
		return
	}

	defer func() {
		that.connectionsMutex.Lock()
		delete(that.connections, playerID)
		that.connectionsMutex.Unlock()
	}()

	that.handleMessages(ctx, playerID, c)
}

// handleConnect registers the connection and replays the player's current
// game, if any.
func (that *Server) handleConnect(ctx context.Context, c *conn, requestedID string) (string, error) {
	player, err := that.players.GetOrCreatePlayer(ctx, requestedID)
	if err != nil {
		return "", err
	}

	that.connectionsMutex.Lock()
	that.connections[player.ID] = c
	that.connectionsMutex.Unlock()

	payload := Payload{Player: player}

	if player.GameID != "" {
		game, err := that.gamePlay.GameByPlayerID(ctx, player.ID)
		if err == nil {
			payload.Game = maskGameFor(game, player.Role)
		}
	}

	if err = c.writeJSON(&Message{Action: actionConnect, Payload: mustMarshal(payload)}); err != nil {
		return "", fmt.Errorf("failed to send connect response: %w", err)
	}

	return player.ID, nil
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, playerID string, c *conn) {
	log := that.logger.With("method", "handleMessages", "playerID", playerID)

	for {
		var message Message
		if err := c.ws.ReadJSON(&message); err != nil {
			log.Debug("connection closed", "error", err)
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			_ = that.sendError(c, message.Action, "unknown action")
			continue
		}

		if err := handler(ctx, playerID, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// pushGameUpdate fans a session change out to its connected players, each
// through their own view projection.
func (that *Server) pushGameUpdate(game *entity.Game) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	for _, player := range game.Players {
		c, ok := that.connections[player.ID]
		if !ok {
			continue
		}

		payload := Payload{Game: maskGameFor(game, player.Role)}
		if err := c.writeJSON(&Message{Action: actionGameState, Payload: mustMarshal(payload)}); err != nil {
			that.logger.Error("failed to push game update", "playerID", player.ID, "error", err)
		}
	}
}
