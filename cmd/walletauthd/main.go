package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	walletauth "github.com/kiddmetro/wallet-auth"
	"github.com/kiddmetro/wallet-auth/adapters/ceremony"
	"github.com/kiddmetro/wallet-auth/adapters/custody"
	"github.com/kiddmetro/wallet-auth/adapters/events"
	"github.com/kiddmetro/wallet-auth/adapters/identity"
	"github.com/kiddmetro/wallet-auth/adapters/store"
	"github.com/kiddmetro/wallet-auth/adapters/tokenizer"
	"github.com/kiddmetro/wallet-auth/config"
	"github.com/kiddmetro/wallet-auth/ports"
	"github.com/kiddmetro/wallet-auth/service"
	transport "github.com/kiddmetro/wallet-auth/transport/http"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Fatal("Failed to generate signing key", zap.Error(err))
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	wmLogger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		logger.Fatal("Failed to create Redis publisher", zap.Error(err))
	}

	kv := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)
	jwtTokenizer := tokenizer.NewJWTTokenizer(privateKey)

	var identityProvider ports.IdentityProvider
	if cfg.IdentityURL != "" {
		identityProvider = identity.NewHTTPClient(cfg.IdentityURL, 10*time.Second)
	} else {
		logger.Warn("No identity backend configured, using in-memory identity")
		identityProvider = identity.NewMemoryIdentity()
	}

	var custodyBackend ports.Custody
	if cfg.CustodyURL != "" {
		custodyBackend = custody.NewHTTPClient(cfg.CustodyURL, cfg.CustodyAPIKey, cfg.CustodyTimeout)
	} else {
		logger.Warn("No custody backend configured, using in-memory dev custody")
		custodyBackend = custody.NewMemoryCustody()
	}

	ceremonyAdapter, err := ceremony.New(ceremony.LoadConfigFromEnv(), kv, identityProvider)
	if err != nil {
		logger.Fatal("Failed to create ceremony adapter", zap.Error(err))
	}

	manager := walletauth.NewManager()

	walletService := service.NewWalletService(
		ceremonyAdapter,
		custodyBackend,
		kv,
		jwtTokenizer,
		eventPub,
		manager,
		logger,
		service.Config{
			SubOrgPrefix:   cfg.SubOrgPrefix,
			AccessTTL:      cfg.AccessTTL,
			RefreshTTL:     cfg.RefreshTTL,
			CustodyTimeout: cfg.CustodyTimeout,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := walletauth.NewWatcher(manager, ceremonyAdapter, identityProvider, logger, cfg.WatcherInterval)
	go watcher.Run(ctx)

	router := transport.SetupRouter(walletService)

	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
