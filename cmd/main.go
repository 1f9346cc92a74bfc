package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront-service/internal/auth"
	"github.com/fjod/go_cart/storefront-service/internal/cache"
	"github.com/fjod/go_cart/storefront-service/internal/config"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	storehttp "github.com/fjod/go_cart/storefront-service/internal/http"
	"github.com/fjod/go_cart/storefront-service/internal/media"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/poller"
	"github.com/fjod/go_cart/storefront-service/internal/repository"
	"github.com/fjod/go_cart/storefront-service/internal/service"
)

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.ConfigureLogger(log.StandardLogger()); err != nil {
		log.WithError(err).Fatal("invalid log configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := log.WithField("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(disconnectCtx); err != nil {
			logger.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	logger.WithField("database", cfg.Mongo.DBName).Info("connected to MongoDB")

	if err := repository.RunMigrations(mongoDB); err != nil {
		logger.WithError(err).Fatal("failed to apply migrations")
	}
	logger.Info("migrations applied")
	if cfg.MigrateOnly {
		return
	}

	var (
		cartCache     cache.CartCache     = cache.Noop[domain.Cart]{}
		wishlistCache cache.WishlistCache = cache.Noop[domain.Wishlist]{}
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("Redis connection failed")
		}
		cartCache = cache.NewRedisCartCache(redisClient)
		wishlistCache = cache.NewRedisWishlistCache(redisClient)
		logger.WithField("addr", cfg.Redis.Addr).Info("Redis cache enabled")
	} else {
		logger.Info("REDIS_ADDR not set, caching disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	tokens, err := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to create token manager")
	}

	var images service.ImageStore
	if cfg.Minio.Enabled() {
		store, err := media.NewMinio(ctx, media.Options{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		}, nil)
		if err != nil {
			logger.WithError(err).Fatal("failed to set up image storage")
		}
		images = store
		logger.WithField("bucket", cfg.Minio.Bucket).Info("image uploads enabled")
	} else {
		logger.Info("MINIO_ENDPOINT not set, image uploads disabled")
	}

	products := repository.NewMongoProductRepository(mongoDB)
	carts := service.NewCartService(
		repository.NewMongoCartRepository(mongoDB),
		products,
		cartCache,
		m,
		service.CartOptions{MaxRetries: cfg.Cart.MaxRetries, StrictStock: cfg.Cart.StrictStock},
		nil,
	)
	wishlists := service.NewWishlistService(repository.NewMongoWishlistRepository(mongoDB), products, wishlistCache, m, nil)
	catalog := service.NewCatalogService(products, images, nil)
	users := service.NewUserService(repository.NewMongoUserRepository(mongoDB), tokens, images, nil)

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled() {
		p := poller.NewPoller(service.NewAccountCleaner(carts, wishlists),
			cfg.Kafka.BrokerList(), cfg.Kafka.AccountTopic, cfg.Kafka.GroupID, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.Close()
			p.Run(ctx)
		}()
		logger.WithField("topic", cfg.Kafka.AccountTopic).Info("account event consumer started")
	}

	router := storehttp.NewRouter(storehttp.RouterConfig{
		Carts:          carts,
		Wishlists:      wishlists,
		Catalog:        catalog,
		Users:          users,
		Verifier:       tokens,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("storefront service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down storefront service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	wg.Wait()
	logger.Info("storefront service stopped")
}
