package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/config"
	"github.com/2beens/fittracker/internal/db"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/body"
	"github.com/2beens/fittracker/internal/fitness/exercises"
	"github.com/2beens/fittracker/internal/fitness/goals"
	"github.com/2beens/fittracker/internal/fitness/profiles"
	"github.com/2beens/fittracker/internal/fitness/programs"
	"github.com/2beens/fittracker/internal/fitness/sessions"
	"github.com/2beens/fittracker/internal/middleware"
	"github.com/2beens/fittracker/internal/products"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient    *redis.Client
	sessionChecker *auth.SessionChecker

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	DatabaseURL             string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewPool(ctx, db.NewPoolParams{
		DatabaseURL:    params.DatabaseURL,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	switch {
	case errors.Is(err, fitness.ErrNotConfigured):
		// storage-less mode: the server runs, storage handlers reply 500
		log.Warn("database url not set, running without storage")
		dbPool = nil
	case err != nil:
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	var promCollectors []prometheus.Collector
	if dbPool != nil {
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.Migrate(ctx, dbPool); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		promCollectors = append(promCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": "fittracker_db"},
		))
	}

	promRegistry := metrics.SetupPrometheus(promCollectors...)
	metricsManager := metrics.NewManager("fittracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	sessionChecker := auth.NewSessionChecker(rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			sessionChecker.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fittracker-backend")
	if err != nil {
		return nil, err
	}

	if params.Config.SeedExercises && dbPool != nil {
		if err := exercises.NewRepo(dbPool).SeedDefaults(ctx); err != nil {
			log.Errorf("failed to seed default exercises: %s", err)
		}
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:    rdb,
		sessionChecker: sessionChecker,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fittracker-router"))

	r.HandleFunc("/", s.handleVersion).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS").Name("version")

	profilesHandler := profiles.NewHandler(profiles.NewRepo(s.dbPool))
	r.HandleFunc("/api/users", profilesHandler.HandleListUsers).Methods("GET", "OPTIONS").Name("list-users")
	r.HandleFunc("/api/profiles", profilesHandler.HandleListProfiles).Methods("GET", "OPTIONS").Name("list-profiles")
	r.HandleFunc("/profile", profilesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", profilesHandler.HandleUpdate).Methods("POST", "OPTIONS").Name("update-profile")

	exercisesHandler := exercises.NewHandler(exercises.NewRepo(s.dbPool))
	r.HandleFunc("/exercises", exercisesHandler.HandleSearch).Methods("GET", "OPTIONS").Name("search-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")

	programsHandler := programs.NewHandler(programs.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/programs", programsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-programs")
	r.HandleFunc("/programs", programsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-program")
	r.HandleFunc("/programs/delete", programsHandler.HandleDeleteForm).Methods("POST", "OPTIONS").Name("delete-program-form")
	r.HandleFunc("/programs/{id}", programsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-program")
	r.HandleFunc("/programs/{id}/deactivate", programsHandler.HandleDeactivate).Methods("POST", "OPTIONS").Name("deactivate-program")
	r.HandleFunc("/programs/{id}/exercises", programsHandler.HandleAddExercise).Methods("POST", "OPTIONS").Name("new-program-exercise")
	r.HandleFunc("/programs/{id}/exercises", programsHandler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-program-exercises")

	sessionsHandler := sessions.NewHandler(sessions.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/sessions/start", sessionsHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.HandleFunc("/sessions/recent", sessionsHandler.HandleListRecent).Methods("GET", "OPTIONS").Name("recent-sessions")
	r.HandleFunc("/sessions/exercises/{id}/sets", sessionsHandler.HandleAddSet).Methods("POST", "OPTIONS").Name("new-set")
	r.HandleFunc("/sessions/{id}/finish", sessionsHandler.HandleFinish).Methods("POST", "OPTIONS").Name("finish-session")
	r.HandleFunc("/sessions/{id}/exercises", sessionsHandler.HandleAddExercise).Methods("POST", "OPTIONS").Name("new-session-exercise")
	r.HandleFunc("/sessions/{id}", sessionsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-session")

	bodyHandler := body.NewHandler(body.NewRepo(s.dbPool), body.NewURLChecker())
	r.HandleFunc("/measurements", bodyHandler.HandleListMeasurements).Methods("GET", "OPTIONS").Name("list-measurements")
	r.HandleFunc("/measurements", bodyHandler.HandleAddMeasurement).Methods("POST", "OPTIONS").Name("new-measurement")
	r.HandleFunc("/photos", bodyHandler.HandleListPhotos).Methods("GET", "OPTIONS").Name("list-photos")
	r.HandleFunc("/photos", bodyHandler.HandleAddPhoto).Methods("POST", "OPTIONS").Name("new-photo")

	goalsHandler := goals.NewHandler(goals.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/goals", goalsHandler.HandleListGoals).Methods("GET", "OPTIONS").Name("list-goals")
	r.HandleFunc("/goals", goalsHandler.HandleAddGoal).Methods("POST", "OPTIONS").Name("new-goal")
	r.HandleFunc("/goals/{id}/progress", goalsHandler.HandleUpdateProgress).Methods("PUT", "OPTIONS").Name("goal-progress")
	r.HandleFunc("/goals/{id}/achieve", goalsHandler.HandleMarkAchieved).Methods("POST", "OPTIONS").Name("goal-achieve")
	r.HandleFunc("/records", goalsHandler.HandleListRecords).Methods("GET", "OPTIONS").Name("list-records")
	r.HandleFunc("/records", goalsHandler.HandleAddRecord).Methods("POST", "OPTIONS").Name("new-record")
	r.HandleFunc("/achievements", goalsHandler.HandleListAchievements).Methods("GET", "OPTIONS").Name("list-achievements")
	r.HandleFunc("/achievements", goalsHandler.HandleAddAchievement).Methods("POST", "OPTIONS").Name("new-achievement")

	productsHandler := products.NewHandler(products.NewRepo(s.dbPool))
	r.HandleFunc("/products", productsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-products")
	r.HandleFunc("/products", productsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-product")
	r.HandleFunc("/products/{id}", productsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-product")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionChecker)
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.RateLimit(
		reqRateLimiter,
		"fittracker-mutations",
		s.config.MutationsRateLimitAllowedPerMin,
		s.metricsManager,
	))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
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

	var shutdownErr error

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("close redis client: %w", err))
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
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown metrics http server: %w", err))
	}

	if shutdownErr != nil {
		log.Errorf(" >>> shutdown finished with errors: %s", shutdownErr)
	} else {
		log.Warnln("server shut down")
	}
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
