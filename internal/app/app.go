package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todoSync/internal/auth"
	"todoSync/internal/cache"
	"todoSync/internal/config"
	"todoSync/internal/handlers"
	"todoSync/internal/logger"
	"todoSync/internal/middleware"
	"todoSync/internal/models/user"
	"todoSync/internal/notification"
	"todoSync/internal/repository/task/datastore"
	"todoSync/internal/repository/task/inmemory"
	"todoSync/internal/repository/task/postgres"
	"todoSync/internal/service"
	kvmemory "todoSync/internal/storage/kv/inmemory"
	kvsqlite "todoSync/internal/storage/kv/sqlite"
	"todoSync/internal/view"
	"todoSync/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	profileDB  service.ProfileRepository
	session    *auth.Session
	service    *service.TaskService
	profiles   *service.ProfileService
	engine     *view.Engine
	planner    *notification.Planner
	scheduler  *notification.TimerScheduler
	worker     *worker.OverdueWorker
	shutdowns  []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	kv, err := a.initKeyValue(ctx)
	if err != nil {
		return err
	}

	a.session = auth.NewSession()
	a.service = service.NewTaskService(a.repository, cache.NewStore(kv), a.session,
		service.WithSyncTimeout(a.config.Sync.Timeout))
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Ожидание фоновой синхронизации...")
		a.service.Close()
	})

	a.profiles = service.NewProfileService(a.profileDB, a.session)
	a.engine = view.NewEngine(a.service)

	a.scheduler = notification.NewTimerScheduler(nil)
	a.planner = notification.NewPlanner(a.scheduler, a.session)
	unsubscribe := a.service.Subscribe(a.planner.OnTasks)
	a.shutdowns = append(a.shutdowns, func() {
		unsubscribe()
		a.scheduler.Stop()
	})

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(a.engine, a.config.Worker.Interval)
	}

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграции postgres: %w", err)
		}

		poolCfg := postgres.DefaultPoolConfig()
		if a.config.Database.MaxConnections > 0 {
			poolCfg.MaxConns = int32(a.config.Database.MaxConnections)
		}
		if a.config.Database.MinConnections > 0 {
			poolCfg.MinConns = int32(a.config.Database.MinConnections)
		}
		if a.config.Database.IdleTimeout > 0 {
			poolCfg.MaxConnIdleTime = a.config.Database.IdleTimeout
		}

		storage, err := postgres.New(ctx, a.config.Database.URL, poolCfg)
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.repository = storage
		a.profileDB = storage
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositoryDatastore:
		storage, err := datastore.New(ctx, a.config.Datastore.ProjectID)
		if err != nil {
			return fmt.Errorf("подключение к datastore: %w", err)
		}
		a.repository = storage
		a.profileDB = storage
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Warn("Ошибка закрытия datastore", zap.Error(err))
			}
		})

	default:
		a.repository = inmemory.NewTaskStorage()
		a.profileDB = inmemory.NewProfileStorage()
	}

	logger.Info("Хранилище задач готово", zap.String("type", a.config.Repository.Type))
	return nil
}

// initKeyValue - хранилище кэша устройства: sqlite-файл или память процесса
func (a *App) initKeyValue(ctx context.Context) (cache.KeyValue, error) {
	if a.config.Cache.Path == "" {
		return kvmemory.NewStorage(), nil
	}

	kv, err := kvsqlite.New(ctx, a.config.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("открытие кэша: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := kv.Close(); err != nil {
			logger.Warn("Ошибка закрытия кэша", zap.Error(err))
		}
	})
	return kv, nil
}

func (a *App) newRouter() *chi.Mux {
	handler := handlers.NewTaskHandler(a.service, a.engine, a.session, a.profiles,
		handlers.WithSettingsListener(func(u user.User) {
			a.planner.Plan(a.service.Tasks(), u.Settings, time.Now())
		}))

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.RateLimit.RPM))

	r.Get("/health", handler.HealthCheck)

	r.Route("/session", func(r chi.Router) {
		r.Post("/", handler.SignIn)
		r.Get("/", handler.GetSession)
		r.Delete("/", handler.SignOut)
		r.Put("/settings", handler.UpdateSettings)
		r.Put("/profile", handler.UpdateProfile)
		r.Post("/pro", handler.UpgradePro)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", handler.GetTasks)
		r.Post("/", handler.PostTask)

		r.Get("/sections", handler.GetSections)
		r.Get("/progress", handler.GetProgress)
		r.Get("/stream", handler.StreamTasks)
		r.Get("/remote", handler.GetRemoteTasks)
		r.Get("/export", handler.ExportTasks)
		r.Post("/reload", handler.ReloadTasks)
		r.Delete("/completed", handler.DeleteCompleted)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", handler.UpdateTask)
			r.Delete("/", handler.DeleteTask)
			r.Post("/toggle", handler.ToggleTask)
		})
	})

	return r
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run блокируется до отмены контекста или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
