package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/sprintboard/api/handler"
	"github.com/fastygo/sprintboard/internal/config"
	"github.com/fastygo/sprintboard/internal/infrastructure/metrics"
	"github.com/fastygo/sprintboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/sprintboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/sprintboard/internal/infrastructure/redis"
	"github.com/fastygo/sprintboard/internal/middleware"
	"github.com/fastygo/sprintboard/internal/router"
	"github.com/fastygo/sprintboard/internal/services"
	"github.com/fastygo/sprintboard/internal/services/lifecycle"
	"github.com/fastygo/sprintboard/pkg/httpcontext"
	"github.com/fastygo/sprintboard/pkg/logger"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/repository/memory"
	"github.com/fastygo/sprintboard/repository/postgres"
	redisRepo "github.com/fastygo/sprintboard/repository/redis"
	"github.com/fastygo/sprintboard/usecase"
	boardUC "github.com/fastygo/sprintboard/usecase/board"
	membershipUC "github.com/fastygo/sprintboard/usecase/membership"
	scheduleUC "github.com/fastygo/sprintboard/usecase/schedule"
	sprintUC "github.com/fastygo/sprintboard/usecase/sprint"
)

// storage bundles the repositories of the selected driver.
type storage struct {
	sprints   repository.SprintRepository
	tasks     repository.TaskRepository
	stories   repository.StoryRepository
	epics     repository.EpicRepository
	work      repository.WorkRepository
	schedules repository.ScheduleRepository
	tx        repository.Transactor
}

func postgresStorage(pool *pgxpool.Pool) storage {
	return storage{
		sprints:   postgres.NewSprintRepository(pool),
		tasks:     postgres.NewTaskRepository(pool),
		stories:   postgres.NewStoryRepository(pool),
		epics:     postgres.NewEpicRepository(pool),
		work:      postgres.NewWorkRepository(pool),
		schedules: postgres.NewScheduleRepository(pool),
		tx:        postgres.NewTransactor(pool),
	}
}

func memoryStorage(store *memory.Store) storage {
	return storage{
		sprints:   store.Sprints(),
		tasks:     store.Tasks(),
		stories:   store.Stories(),
		epics:     store.Epics(),
		work:      store.Work(),
		schedules: store.Schedules(),
		tx:        store,
	}
}

func plannerSettings(cfg config.PlannerConfig) usecase.Settings {
	return usecase.Settings{
		SlotUnitHours:   cfg.SlotUnitHours,
		DefaultSlotHour: cfg.DefaultSlotHour,
		MinHour:         cfg.MinHour,
		MaxHour:         cfg.MaxHour,
		NextSprintDays:  cfg.NextSprintDays,
	}.Normalize()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var (
		store storage
		pool  *pgxpool.Pool
	)
	switch cfg.Storage.Driver {
	case "memory":
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store = memoryStorage(memory.NewStore())
	default:
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.RegisterCloser("postgres", pool.Close)
		store = postgresStorage(pool)
	}

	var (
		redisClient *goRedis.Client
		boardCache  usecase.BoardCache
	)
	if cfg.Cache.Enabled {
		redisClient, err = redisInfra.NewClient(cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		boardCache = redisRepo.NewBoardCache(redisClient, cfg.Cache.BoardTTL)
	}

	mon := monitor.New(pool, redisClient, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.RegisterCloser("monitor", mon.Stop)

	planner := metrics.New()
	settings := plannerSettings(cfg.Planner)

	sprintUseCase := sprintUC.New(sprintUC.Deps{
		Sprints:   store.sprints,
		Tasks:     store.tasks,
		Schedules: store.schedules,
		Tx:        store.tx,
		Cache:     boardCache,
	}, settings, zapLogger)
	membershipUseCase := membershipUC.New(store.tasks, store.work, store.schedules, settings, zapLogger)
	scheduleUseCase := scheduleUC.New(scheduleUC.Deps{
		Schedules: store.schedules,
		Tasks:     store.tasks,
		Sprints:   store.sprints,
		Tx:        store.tx,
		Cache:     boardCache,
		Observer:  planner,
	}, settings, zapLogger)
	boardUseCase := boardUC.New(boardUC.Deps{
		Sprints:   sprintUseCase,
		Members:   membershipUseCase,
		Schedules: store.schedules,
		Stories:   store.stories,
		Epics:     store.epics,
		Work:      store.work,
		Cache:     boardCache,
		Observer:  planner,
	}, settings, zapLogger)

	if cfg.Rollover.Enabled {
		rollover, err := services.NewRollover(store.sprints, sprintUseCase, zapLogger, services.RolloverConfig{
			Schedule: cfg.Rollover.Schedule,
			Timeout:  cfg.Rollover.Timeout,
		})
		if err != nil {
			zapLogger.Fatal("invalid rollover schedule", zap.Error(err))
		}
		rollover.Start()
		manager.Register("rollover", rollover.Stop)
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Sprint:   apiHandler.NewSprintHandler(sprintUseCase, boardUseCase, ctxAdapter, zapLogger),
		Schedule: apiHandler.NewScheduleHandler(scheduleUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = planner.Handler()
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{EnablePprof: cfg.HTTP.EnablePprof})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("board_cache", boardCache != nil),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
