package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/categories"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/patrons"
	"github.com/mrlokans/librarian/internal/events"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests the
	// configured timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// OpenDatabase opens the store described by cfg.
func OpenDatabase(cfg config.Database) (*database.Database, error) {
	return database.Open(database.Options{
		Driver:           cfg.Driver,
		Path:             cfg.Path,
		DSN:              cfg.DSN,
		StatementTimeout: cfg.StatementTimeout,
		BusyTimeout:      cfg.BusyTimeout,
		LogLevel:         cfg.GormLogLevel(),
	})
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarian v%s", version)

	db, err := OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bus := events.NewBus(cfg.Events.Buffer)

	runner := db.Runner()
	categoriesRepo := categories.NewRepository(runner, bus)
	booksRepo := books.NewRepository(runner, bus)
	patronsRepo := patrons.NewRepository(runner, bus)
	loansRepo := loans.NewRepository(runner, bus)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewOverdueReportQueue(loansRepo, nil))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var overdueScheduler *scheduler.OverdueReportScheduler
	if cfg.OverdueReport.Enabled {
		// A nil *tasks.Client must not reach the scheduler as a non-nil interface.
		var enqueuer scheduler.TaskEnqueuer
		if taskClient != nil {
			enqueuer = taskClient
		}
		overdueScheduler = scheduler.NewOverdueReportScheduler(enqueuer, cfg.OverdueReport.Schedule)
		if err := overdueScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start overdue report scheduler: %v", err)
			overdueScheduler = nil
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Categories:     categoriesRepo,
		Books:          booksRepo,
		Patrons:        patronsRepo,
		Loans:          loansRepo,
		Events:         bus,
		LoanPeriodDays: cfg.Loans.PeriodDays,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if overdueScheduler != nil {
			overdueScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		// Ends open event streams so the server can drain.
		bus.Close()
	}

	Serve(router, cfg, onShutdown)
}
