package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tweetflow/internal/api"
	"tweetflow/internal/api/middleware"
	"tweetflow/pkg/factory"
)

func main() {
	appFactory, err := factory.NewFactory(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Uygulama başlatılamadı: %v\n", err)
		os.Exit(1)
	}

	log := appFactory.GetLogger()
	cfg := appFactory.GetConfig()

	log.Info("Uygulama başlatılıyor", map[string]interface{}{
		"env":    cfg.AppEnv,
		"driver": cfg.Database.Driver,
		"cache":  cfg.Redis.Enabled(),
	})

	checks := map[string]api.HealthCheck{
		"database": appFactory.GetDB().PingContext,
	}
	if c := appFactory.GetCache(); c != nil {
		checks["redis"] = c.Ping
	}

	mux := http.NewServeMux()

	api.NewUserHandler(appFactory.GetUserService(), appFactory.GetGraphService(), log).RegisterRoutes(mux)
	api.NewTweetHandler(appFactory.GetTweetService(), appFactory.GetFeedService(), log).RegisterRoutes(mux)
	api.NewActivityHandler(appFactory.GetActivityService(), log).RegisterRoutes(mux)
	api.NewHealthHandler(checks, log).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst, log)
	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.TracingMiddleware,
		limiter.Middleware,
		middleware.MetricsMiddleware,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("HTTP sunucusu başlatılıyor", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP sunucusu başlatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Sunucu kapatılıyor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Sunucu kapatılırken hata oluştu", map[string]interface{}{"error": err.Error()})
	}
	if err := appFactory.Close(ctx); err != nil {
		log.Error("Kaynaklar serbest bırakılamadı", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Sunucu başarıyla kapatıldı", nil)
}
