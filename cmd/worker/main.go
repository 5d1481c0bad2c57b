package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/jobs"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})

	if !cfg.DB.Enabled() {
		log.Fatal().Msg("el worker requiere PostgreSQL (DATABASE_URL o DB_HOST)")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("el worker requiere REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repos := postgres.NewRepositories(pool)
	ledgerLog := log.Component("ledger")
	reconciler := ledger.NewReconciler(repos, cfg.Ledger.Workers, ledgerLog)
	lowStock := ledger.NewLowStockEvaluator(repos, cfg.Ledger.Workers)

	reconcileJob := jobs.NewReconcileJob(reconciler, log.Component("jobs"))
	lowStockJob := jobs.NewLowStockJob(lowStock, log.Component("jobs"))

	reconcileTask, err := jobs.NewReconcileTask("")
	if err != nil {
		log.Fatal().Err(err).Msg("tarea de conciliación")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Ledger.Workers,
		Logger:      log.Component("worker"),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcile, Handler: reconcileJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Ledger.ReconcileCron, Task: reconcileTask},
			{Spec: cfg.Ledger.LowStockCron, Task: jobs.NewLowStockScanTask()},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear worker")
	}

	log.Info().
		Str("reconcile_cron", cfg.Ledger.ReconcileCron).
		Str("low_stock_cron", cfg.Ledger.LowStockCron).
		Msg("worker del ledger iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker detenido con error")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}
