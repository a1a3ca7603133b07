package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"pairchat/infrastructure/grpc/server"
	"pairchat/infrastructure/rest"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/runtime/workers"
	"pairchat/services"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pairchat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until SIGINT/SIGTERM.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if !config.BadgerInMemory && config.BadgerFilepath == "" {
		return exitConfig, errors.New("config error: BADGER_FILEPATH is required unless BADGER_IN_MEMORY is set")
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(ctx, config, log))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if log.Enabled(ctx, slog.LevelDebug) && !config.BadgerInMemory {
		endpoint := "/inspect"
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, EntryMapper)
	}

	// 3. Stores & services
	userRepository := repositories.NewUserRepository(db, log)
	conversationRepository := repositories.NewConversationRepository(db, log)
	roster := services.NewScanRoster(userRepository, conversationRepository)
	chatService := services.NewChatService(log, userRepository, conversationRepository, roster, config.MaxContentLength)
	directoryService := services.NewDirectoryService(userRepository, log)

	monitoring, err := observability.NewMonitoringManager(log, config.MetricInterval)
	if err != nil {
		return exitRuntime, fmt.Errorf("monitoring setup failed: %w", err)
	}

	// 4. Transports under supervision
	chatServer := server.NewChatServer(log, chatService, directoryService)
	newGRPCServer := func() *grpc.Server {
		s := grpc.NewServer(grpc.ChainUnaryInterceptor(
			sdkgrpc.UnaryLoggingInterceptor(log),
			server.MonitoringInterceptor(monitoring),
		))
		server.RegisterPairChatServer(s, chatServer)
		return s
	}
	router := rest.NewRouter(log, chatService, directoryService, monitoring, config.Origins())

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		monitoring,
		workers.NewGRPCServerWorker(log, listenTCP(config.GRPCHost, config.GRPCPort), newGRPCServer, config.ShutdownTimeout),
		workers.NewHTTPServerWorker(log, listenTCP(config.HTTPHost, config.HTTPPort), router, config.ShutdownTimeout),
	)

	// 5. Block until a signal cancels ctx and every worker returned
	sup.Run(ctx)
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(ctx context.Context, config Config, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if config.BadgerInMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG).WithBypassLockGuard(!config.BadgerInMemory)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func listenTCP(host string, port int) func() (net.Listener, error) {
	address := fmt.Sprintf("%s:%d", host, port)
	return func() (net.Listener, error) {
		return net.Listen("tcp", address)
	}
}

// EntryMapper renders store keys on the debug inspector page.
func EntryMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	entry, err := repositories.DescribeEntry(key, val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = entry.Kind
	row.Detail = entry.Detail
	return row
}
