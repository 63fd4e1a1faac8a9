package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/shaan-hospital/apiserver/config"
	"github.com/shaan-hospital/apiserver/internal/cleanup"
	"github.com/shaan-hospital/apiserver/internal/handlers"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/metrics"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/session"
)

const requestTimeout = 60 * time.Second

// ObjectStore is the image store as seen by the API: uploads go through
// services, deletions through the cleanup queue.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Deps are the backends an App is built on. Objects and Broker may be nil.
type Deps struct {
	Users        services.UserRepository
	Departments  services.DepartmentRepository
	News         services.NewsRepository
	Messages     services.MessageRepository
	Appointments services.AppointmentRepository
	Objects      ObjectStore
	Broker       cleanup.Publisher
}

// App is the wired HTTP application.
type App struct {
	Router  *chi.Mux
	Users   *services.UserService
	Cleanup *cleanup.Queue
	Metrics *metrics.Collector
}

// NewApp wires services, session handling and routes over deps.
func NewApp(cfg config.Config, log *logger.Logger, deps Deps) (*App, error) {
	issuer, err := session.NewIssuer(session.Options{
		Secret:           cfg.JWT.Secret,
		TTL:              cfg.JWT.TTL,
		CookieExpireDays: cfg.CookieExpireDays,
		Production:       cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	var (
		objects services.ObjectStore
		deleter cleanup.Deleter
	)
	if deps.Objects != nil {
		objects = deps.Objects
		deleter = deps.Objects
	}
	queue := cleanup.NewQueue(deleter, deps.Broker, cfg.MQ.CleanupChannel, log)
	queue.Observe(collector.RecordCleanup)
	images := services.NewImages(objects, queue)

	userService := services.NewUserService(deps.Users, images)
	departmentService := services.NewDepartmentService(deps.Departments, images)
	newsService := services.NewNewsService(deps.News, images)
	messageService := services.NewMessageService(deps.Messages)
	appointmentService := services.NewAppointmentService(deps.Appointments, userService)

	guard := handlers.NewGuard(issuer, userService, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		log.Middleware,
		collector.Middleware,
		middleware.Timeout(requestTimeout),
		corsHandler(cfg.CORS),
	)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", collector.Handler())

	mount := func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			handlers.UserRouter(r, userService, issuer, guard, log)
		})
		r.Route("/department", func(r chi.Router) {
			handlers.DepartmentRouter(r, departmentService, guard, log)
		})
		r.Route("/news", func(r chi.Router) {
			handlers.NewsRouter(r, newsService, guard, log)
		})
		r.Route("/message", func(r chi.Router) {
			handlers.MessageRouter(r, messageService, guard, log)
		})
		r.Route("/appointment", func(r chi.Router) {
			handlers.AppointmentRouter(r, appointmentService, guard, log)
		})
	}
	router.Route("/api/v1", mount)
	router.Group(mount)

	return &App{
		Router:  router,
		Users:   userService,
		Cleanup: queue,
		Metrics: collector,
	}, nil
}

func corsHandler(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}
