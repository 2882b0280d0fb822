package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/handlers"
	"github.com/ayumi-hirano/schedcal/internal/session"
	"github.com/ayumi-hirano/schedcal/libs/config"
	"github.com/ayumi-hirano/schedcal/libs/httpx"
	"github.com/ayumi-hirano/schedcal/libs/kv"
	otelx "github.com/ayumi-hirano/schedcal/libs/otel"
	"github.com/ayumi-hirano/schedcal/libs/runtime"
)

func workingHours(logger *slog.Logger) handlers.WorkingHours {
	start, err := dateutil.ParseClock(config.String("WORK_START", "08:00"))
	if err != nil {
		logger.Warn("invalid WORK_START, using 08:00", "err", err)
		start = 8 * 60
	}
	end, err := dateutil.ParseClock(config.String("WORK_END", "22:00"))
	if err != nil {
		logger.Warn("invalid WORK_END, using 22:00", "err", err)
		end = 22 * 60
	}
	return handlers.WorkingHours{
		Start:           start,
		End:             end,
		IntervalMinutes: config.Int("SLOT_INTERVAL_MINUTES", 30),
	}
}

// openStore picks the persistence backend. STORE_BACKEND wins; otherwise the
// presence of REDIS_ADDR or DATABASE_URL decides, with the in-memory store as
// the dev fallback.
func openStore(ctx context.Context, logger *slog.Logger) (kv.Store, error) {
	backend := config.String("STORE_BACKEND", "")
	if backend == "" {
		switch {
		case config.String("REDIS_ADDR", "") != "":
			backend = "redis"
		case config.String("DATABASE_URL", "") != "":
			backend = "postgres"
		default:
			backend = "memory"
		}
	}

	switch backend {
	case "redis":
		return kv.OpenRedis(ctx, kv.RedisOptions{
			Addr:     config.String("REDIS_ADDR", "localhost:6379"),
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
	case "postgres":
		url, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return nil, err
		}
		return kv.OpenPostgres(ctx, url)
	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return kv.NewMemoryStore(), nil
	}
}

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "schedcal")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	store, err := openStore(ctx, logger)
	if err != nil {
		logger.Error("store connection failed", "err", err)
		panic(err)
	}
	defer func() { _ = store.Close() }()

	registry := session.NewRegistry(store, logger)
	registry.Subscribe(func(identity string, active bool) {
		logger.Info("session state changed", "identity", identity, "active", active)
	})

	signer := handlers.NewHS256Signer(jwtSecret)
	refreshTTL := time.Duration(config.Int("REFRESH_TTL_HOURS", 24*30)) * time.Hour
	authHandler := handlers.NewAuthHandler(signer, store, registry, refreshTTL)
	apptHandler := handlers.NewAppointmentsHandler(registry)
	scheduleHandler := handlers.NewScheduleHandler(registry, workingHours(logger))
	calendarHandler := handlers.NewCalendarHandler(registry)
	viewHandler := handlers.NewViewHandler(registry)
	cardHandler := handlers.NewCardHandler(registry, nil)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "store", Check: kv.ReadyCheck(store)},
	)
	mux.HandleFunc("/api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("/api/v1/auth/me", handlers.RequireAuth(signer, authHandler.Me))
	mux.HandleFunc("/api/v1/appointments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			handlers.RequireAuth(signer, apptHandler.Create)(w, r)
			return
		}
		handlers.RequireAuth(signer, apptHandler.List)(w, r)
	})
	mux.HandleFunc("/api/v1/appointments/update", handlers.RequireAuth(signer, apptHandler.Update))
	mux.HandleFunc("/api/v1/appointments/delete", handlers.RequireAuth(signer, apptHandler.Delete))
	mux.HandleFunc("/api/v1/appointments/card", handlers.RequireAuth(signer, cardHandler.Render))
	mux.HandleFunc("/api/v1/unavailable/toggle", handlers.RequireAuth(signer, apptHandler.ToggleUnavailable))
	mux.HandleFunc("/api/v1/schedule/day", handlers.RequireAuth(signer, scheduleHandler.Day))
	mux.HandleFunc("/api/v1/calendar/month", handlers.RequireAuth(signer, calendarHandler.Month))
	mux.HandleFunc("/api/v1/calendar/week", handlers.RequireAuth(signer, calendarHandler.Week))
	mux.HandleFunc("/api/v1/view", handlers.RequireAuth(signer, viewHandler.State))
	mux.HandleFunc("/api/v1/view/navigate", handlers.RequireAuth(signer, viewHandler.Navigate))
	mux.HandleFunc("/api/v1/view/select", handlers.RequireAuth(signer, viewHandler.Select))
	mux.HandleFunc("/api/v1/view/mode", handlers.RequireAuth(signer, viewHandler.SetMode))
	mux.HandleFunc("/api/v1/view/search", handlers.RequireAuth(signer, viewHandler.SetSearch))

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limit httpx.Middleware
	if rs, ok := store.(*kv.RedisStore); ok {
		limit = httpx.NewRedisRateLimiter(rs.Client(), rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: []string{config.String("CORS_ALLOWED_ORIGINS", "*")},
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		limit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(30*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
