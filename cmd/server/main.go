package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/shiftline/emergency/pkg/api"
	"github.com/shiftline/emergency/pkg/game"
	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/queue"
	"github.com/shiftline/emergency/pkg/repositories"
	"github.com/shiftline/emergency/pkg/session"
	"github.com/shiftline/emergency/pkg/store"
	"github.com/shiftline/emergency/pkg/workers"
)

type Config struct {
	SessionID                string `env:"SESSION_ID"`
	DatabaseURL              string `env:"DATABASE_URL"`
	SQLitePath               string `env:"SQLITE_PATH" envDefault:"emergency.db"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
}

func main() {
	httpPort := flag.Int("http-port", 8080, "HTTP port for the monitor server")
	logLevel := flag.String("log-level", "info", "Log level")
	dwell := flag.Duration("advance-dwell", 2*time.Second, "Minimum dwell between hour advances")
	stuckTimeout := flag.Duration("stuck-timeout", 15*time.Second, "Time before a stalled player is rescued")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse environment config: %v", err))
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.New().String()
		log.Info("No SESSION_ID set, starting session %s", cfg.SessionID)
	}

	ctx := context.Background()

	var documents store.DocumentStore
	if cfg.FirestoreProjectID != "" {
		documents, err = store.NewFirestoreStore(ctx, store.NewFirestoreStoreOptions{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			SessionID:       cfg.SessionID,
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to create firestore store: %v", err))
		}
	} else {
		log.Info("No FIRESTORE_PROJECT_ID set, using in-memory store")
		documents = store.NewInMemoryStore()
	}
	defer documents.Close()

	if _, err := documents.GetSession(ctx); err != nil {
		if !store.IsNotFound(err) {
			panic(fmt.Sprintf("Failed to get session: %v", err))
		}
		params := types.DefaultGameParameters()
		generator := game.NewScheduleGenerator(params, rand.New(rand.NewSource(time.Now().UnixNano())))
		if err := documents.PutSession(ctx, &types.Session{
			ID:       cfg.SessionID,
			Status:   types.SessionStatusStaffing,
			Schedule: generator.Schedule(),
			Params:   params,
		}); err != nil {
			panic(fmt.Sprintf("Failed to create session: %v", err))
		}
		log.Info("Created session %s", cfg.SessionID)
	}

	var repository repositories.Repository
	if cfg.DatabaseURL != "" {
		repository, err = repositories.NewPostgresRepository(ctx, cfg.DatabaseURL)
	} else {
		log.Info("No DATABASE_URL set, using sqlite at %s", cfg.SQLitePath)
		repository, err = repositories.NewSQLiteRepository(ctx, cfg.SQLitePath)
	}
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(ctx)

	saveStateChan := make(chan workers.SavePlayerStateRequest, 100)
	saveWorker := workers.NewSaveStateWorker(workers.NewSaveStateWorkerOptions{
		Repository:    repository,
		Store:         documents,
		SessionID:     cfg.SessionID,
		SaveStateChan: saveStateChan,
		Interval:      10 * time.Second,
	})
	go saveWorker.Start(ctx)

	advanceQueue := queue.NewInMemoryQueue(1000)
	coordinator := session.NewCoordinator(session.NewCoordinatorOptions{
		Store:        documents,
		AdvanceQueue: advanceQueue,
		RNG:          rand.New(rand.NewSource(time.Now().UnixNano())),
		TickInterval: time.Second,
		Dwell:        *dwell,
		StuckTimeout: *stuckTimeout,
	})

	monitorServer := api.NewMonitorServer(api.NewMonitorServerOptions{
		Port:     *httpPort,
		Store:    documents,
		Advancer: coordinator,
	})
	go monitorServer.Start()

	log.Info("Starting session coordinator")
	coordinator.Start(ctx)
}
