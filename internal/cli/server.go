package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"persona-service/internal/app"
	"persona-service/internal/bank"
	"persona-service/internal/config"
	"persona-service/internal/domain"
	"persona-service/internal/infra/memory"
	pgstore "persona-service/internal/infra/postgres"
	redisstore "persona-service/internal/infra/redis"
	"persona-service/internal/infra/report"
	transport "persona-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 2*time.Hour)
	bankTTL := config.TTLDuration(cfg.Bank.TTL, time.Hour)

	bankID := cfg.Bank.ID
	if bankID == "" {
		bankID = bank.DefaultID
	}

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	var loader memory.BankLoader
	if pool != nil {
		loader = pgstore.NewBankLoader(pool)
	} else {
		builtin, err := bank.Default()
		if err != nil {
			return err
		}
		loader = memory.NewStaticBankLoader(map[string]domain.QuestionBank{bankID: builtin})
	}
	banks := memory.NewBankRepository(loader, bankTTL)

	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var records app.RecordRepository
	if bunDB != nil {
		records = pgstore.NewRecordRepository(bunDB)
	} else {
		records = memory.NewRecordRepository()
	}

	deliverer := report.NewLogDeliverer(banks, bankID)
	service := app.NewAssessmentService(banks, sessions, records, deliverer, app.NewShuffler(nil), bankID)
	reconciler := app.NewReconciler(records)

	wsHandler := transport.NewWSHandler(service)
	historyHandler := transport.NewHistoryHandler(reconciler)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/history", historyHandler.ServeHistory)
	mux.HandleFunc("/auth/event", historyHandler.ServeAuthEvent)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting persona service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
