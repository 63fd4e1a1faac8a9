package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/config"
	"github.com/shaan-hospital/apiserver/internal/cleanup"
	"github.com/shaan-hospital/apiserver/internal/db"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/mq"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/storage"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/internal/store/memory"
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	app        *App
	db         *sql.DB
	broker     *mq.MQ
	stopWorker context.CancelFunc
	workerDone chan struct{}
	log        *logger.Logger
}

// New opens the configured backends and builds the server. The default
// administrator is created when missing.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{log: log}

	deps, err := s.openBackends(ctx, cfg)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	app, err := NewApp(cfg, log, deps)
	if err != nil {
		s.closeResources()
		return nil, err
	}
	s.app = app

	seed := services.AdminSeed{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword}
	if admin, created, err := app.Users.EnsureAdmin(ctx, seed); err != nil {
		log.WithComponent("server").WithError(err).Warn("default admin not ensured")
	} else if created {
		log.WithComponent("server").WithField("email", admin.Email).Info("default admin created")
	}

	if s.broker != nil && deps.Objects != nil {
		s.startWorker(cfg, deps.Objects)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      app.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openBackends(ctx context.Context, cfg config.Config) (Deps, error) {
	var deps Deps

	switch cfg.Store.Backend {
	case "memory":
		deps.Users = memory.NewUserRepository()
		deps.Departments = memory.NewDepartmentRepository()
		deps.News = memory.NewNewsRepository()
		deps.Messages = memory.NewMessageRepository()
		deps.Appointments = memory.NewAppointmentRepository()
	case "postgres", "":
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return deps, fmt.Errorf("open database: %w", err)
		}
		s.db = conn
		deps.Users = store.NewUserRepository(conn)
		deps.Departments = store.NewDepartmentRepository(conn)
		deps.News = store.NewNewsRepository(conn)
		deps.Messages = store.NewMessageRepository(conn)
		deps.Appointments = store.NewAppointmentRepository(conn)
	default:
		return deps, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}

	if cfg.Storage.Backend != "" {
		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return deps, fmt.Errorf("open object storage: %w", err)
		}
		deps.Objects = objects
	} else {
		s.log.WithComponent("server").Warn("object storage disabled, image uploads will fail")
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		return deps, fmt.Errorf("open message broker: %w", err)
	}
	if broker != nil {
		s.broker = broker
		deps.Broker = broker
	}
	return deps, nil
}

func (s *Server) startWorker(cfg config.Config, deleter cleanup.Deleter) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWorker = cancel
	s.workerDone = make(chan struct{})

	worker := cleanup.NewWorker(deleter, s.broker, cfg.MQ.CleanupChannel, s.log)
	worker.Observe(s.app.Metrics.RecordCleanup)
	go func() {
		defer close(s.workerDone)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithComponent("cleanup").WithError(err).Error("cleanup worker stopped")
		}
	}()
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.app.Router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithComponent("server").WithField("addr", s.httpServer.Addr).Info("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, stops the cleanup consumer and
// releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.stopWorker != nil {
		s.stopWorker()
		select {
		case <-s.workerDone:
		case <-ctx.Done():
		}
	}
	s.app.Cleanup.Wait()
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
