package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"itinera/config"
	"itinera/db"
	"itinera/globals"
	"itinera/itinerary"
	"itinera/jobs"
	"itinera/logx"
	"itinera/middleware"
	"itinera/mq"
	"itinera/notify"
	"itinera/products"
	"itinera/ratelim"
	"itinera/rdx"
	"itinera/routes"
	"itinera/timeline"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal("config", err)
	}
	logx.SetLevel(logx.ParseLevel(cfg.LogLevel))
	globals.JwtSecret = []byte(cfg.JWTSecret)

	dayStart, err := timeline.ParseClock(cfg.Scheduling.DayStart)
	if err != nil {
		logx.Fatal("config day_start", err, "value", cfg.Scheduling.DayStart)
	}
	engine := timeline.Engine{DayStart: dayStart, DefaultDuration: cfg.Scheduling.DefaultDuration}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
		logx.Fatal("mongo", err)
	}

	hub := notify.NewHub()
	go hub.Run()

	g, gctx := errgroup.WithContext(ctx)

	// Without Redis, drafts stay in memory and notices go straight to the hub.
	var (
		drafts   itinerary.DraftCache
		notifier timeline.Notifier
		rdb      *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logx.Fatal("redis", err, "addr", cfg.RedisAddr)
		}
		drafts = rdx.NewDraftStore(rdb, cfg.DraftTTL)
		notifier = mq.NewEmitter(rdb)
		g.Go(func() error { return mq.StartNoticeWorker(gctx, rdb, hub) })
	} else {
		logx.Info("REDIS_ADDR not set; drafts kept in memory")
		drafts = itinerary.NewMemoryDrafts(cfg.DraftTTL)
		notifier = mq.Direct{Sink: hub}
	}

	catalog := products.NewMongoCatalog(db.ProductCollection)
	svc := itinerary.NewService(
		itinerary.NewMongoRepository(db.ItineraryCollection),
		drafts, catalog, notifier, engine, cfg.Scheduling.MaxTripDays,
	)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	scheduler := jobs.NewScheduler(svc, cfg.PurgeAfterDays, rateLimiter)
	if err := scheduler.Start(cfg.PurgeCron); err != nil {
		logx.Fatal("scheduler", err)
	}

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Itineraries: itinerary.NewHandler(svc, cfg.PublicBaseURL),
		Products:    products.NewHandler(catalog),
		Hub:         hub,
		RateLimiter: rateLimiter,
	})

	// apply middleware: CORS → security headers → logging → recover → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(middleware.Recover(router))

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		logx.Info("shutting down notice hub")
		hub.Stop()
	})

	g.Go(func() error {
		logx.Info("server listening", "addr", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logx.Info("shutdown signal received; shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logx.Error("server", err)
	}

	scheduler.Stop()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Disconnect(closeCtx); err != nil {
		logx.Error("mongo disconnect", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logx.Error("redis close", err)
		}
	}
	logx.Info("server stopped cleanly")
}
