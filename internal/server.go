package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fitmotion/fitmotion/internal/auth"
	"github.com/fitmotion/fitmotion/internal/config"
	"github.com/fitmotion/fitmotion/internal/db"
	"github.com/fitmotion/fitmotion/internal/middleware"
	"github.com/fitmotion/fitmotion/internal/plans"
	"github.com/fitmotion/fitmotion/internal/telemetry/metrics"
	metricsmiddleware "github.com/fitmotion/fitmotion/internal/telemetry/metrics/middleware"
	"github.com/fitmotion/fitmotion/internal/telemetry/tracing"
	"github.com/fitmotion/fitmotion/internal/users"
	"github.com/fitmotion/fitmotion/internal/workout"
	"github.com/fitmotion/fitmotion/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	planGenerator  *plans.Generator
	sessionManager *workout.Manager

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "fitmotion_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitmotion", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitmotion-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		authService:  auth.NewService(auth.DefaultTTL, rdb),
		loginChecker: auth.NewLoginChecker(rdb),

		planGenerator:  plans.NewGenerator(params.Config.PlanGeneratorBaseURL, tracedHttpClient),
		sessionManager: workout.NewManager(metricsManager),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONResponseOK(w, `{"status":"ok"}`)
	}).Methods("GET", "OPTIONS").Name("health")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteResponse(w, pkg.ContentType.Text, s.versionInfo, http.StatusOK)
	}).Methods("GET", "OPTIONS").Name("version")

	usersRepo := users.NewRepo(s.dbPool)
	usersHandler := users.NewHandler(usersRepo, s.authService)
	r.HandleFunc("/users/register", usersHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	r.Handle(
		"/users/login",
		middleware.RateLimit(
			reqRateLimiter, "login",
			s.config.LoginRateLimitAllowedPerMin,
			s.metricsManager,
		)(http.HandlerFunc(usersHandler.HandleLogin)),
	).Methods("POST", "OPTIONS").Name("login")
	r.HandleFunc("/users/logout", usersHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	r.HandleFunc("/users/me", usersHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")
	r.HandleFunc("/users/me/profile", usersHandler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")

	plansHandler := plans.NewHandler(plans.NewRepo(s.dbPool), usersRepo, s.planGenerator)
	r.HandleFunc("/plans", plansHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plans", plansHandler.HandleUpdate).Methods("POST", "OPTIONS").Name("update-plan")
	r.HandleFunc("/plans/generate", plansHandler.HandleGenerate).Methods("POST", "OPTIONS").Name("generate-plan")

	workoutRepo := workout.NewRepo(s.dbPool)
	workoutHandler := workout.NewHandler(
		s.sessionManager,
		workoutRepo,
		workout.NewAnalyzer(workoutRepo),
	)
	r.HandleFunc("/workout/session/start", workoutHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.Handle(
		"/workout/session/{id}/frame",
		middleware.RateLimit(
			reqRateLimiter, "frames",
			s.config.FramesRateLimitAllowedPerMin,
			s.metricsManager,
		)(http.HandlerFunc(workoutHandler.HandleFrame)),
	).Methods("POST", "OPTIONS").Name("analyze-frame")
	r.HandleFunc("/workout/session/{id}/reset", workoutHandler.HandleReset).Methods("POST", "OPTIONS").Name("reset-session")
	r.HandleFunc("/workout/session/{id}/end", workoutHandler.HandleEnd).Methods("POST", "OPTIONS").Name("end-session")
	r.HandleFunc("/workout/session/{id}", workoutHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/workout/sessions", workoutHandler.HandleList).Methods("GET", "OPTIONS").Name("list-sessions")
	r.HandleFunc("/workout/stats", workoutHandler.HandleStats).Methods("GET", "OPTIONS").Name("workout-stats")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metricsmiddleware.
		New(s.promRegistry, nil).
		WrapHandler("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{}),
		))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
