package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/battleship-backend/internal/commitment"
	"github.com/rocketscienceinc/battleship-backend/internal/config"
	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
	"github.com/rocketscienceinc/battleship-backend/internal/repository/storage"
	"github.com/rocketscienceinc/battleship-backend/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/battleship-backend/internal/service"
	"github.com/rocketscienceinc/battleship-backend/transport/rest"
	"github.com/rocketscienceinc/battleship-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	playerRepo := repository.NewPlayerRepository(redisClient)
	gameRepo := repository.NewGameRepository(redisClient)
	saltRepo := repository.NewSaltRepository(sqliteStorage.Connection)

	var reader ledger.Reader
	var writer ledger.Writer
	if conf.Ledger.RPCURL != "" {
		client := ledger.NewHTTPClient(conf.Ledger.RPCURL)
		reader = ledger.NewRetryingReader(client)
		writer = client
	}

	playerService := service.NewPlayerService(playerRepo)
	gameService := service.NewGameService(gameRepo)
	botService := service.NewBotService()
	poller := service.NewPoller(logger, reader)
	defer poller.Shutdown()

	gamePlayService := service.NewGamePlayService(
		logger,
		playerService,
		gameService,
		botService,
		saltRepo,
		commitment.NewGenerator(),
		writer,
		poller,
		conf.Bot.MoveDelay(),
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gamePlayService, playerService, conf.Ledger.PollInterval())
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
