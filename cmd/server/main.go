package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/insectlab/bugradar/internal/api"
	"github.com/insectlab/bugradar/internal/auth"
	"github.com/insectlab/bugradar/internal/chat"
	"github.com/insectlab/bugradar/internal/config"
	"github.com/insectlab/bugradar/internal/events"
	"github.com/insectlab/bugradar/internal/live"
	"github.com/insectlab/bugradar/internal/middleware"
	"github.com/insectlab/bugradar/internal/ratelimit"
	"github.com/insectlab/bugradar/internal/sessionlog"
	"github.com/insectlab/bugradar/internal/tokens"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] config: %v", err)
	}

	if cfg.Auth.SigningKey == "" {
		log.Fatalf("[Server] JWT_SIGNING_KEY (or auth.signing_key) is required")
	}
	if cfg.Auth.PasswordHash == "" {
		log.Fatalf("[Server] auth.password_hash is required; generate one with cmd/genpass")
	}

	log.Printf("[Server] Starting - Addr: %s, Log: %s, NATS: %s", cfg.Server.Addr, cfg.Server.LogPath, cfg.NATS.URL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session log, kept fresh by the file watcher while the rig runs.
	store, err := sessionlog.Open(cfg.Server.LogPath)
	if err != nil {
		log.Fatalf("[Server] session log: %v", err)
	}
	store.StartWatcher(ctx)

	// Redis: optional. Without it there is no live cache, no chat
	// throttling and no logout blacklist, but browsing still works.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[Server] Redis unreachable at %s: %v (live cache disabled)", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		}
	}

	var liveCache *live.Cache
	var blacklist auth.TokenBlacklist
	var chatLimiter *ratelimit.Limiter
	if redisClient != nil {
		defer redisClient.Close()
		liveCache = live.NewCache(redisClient, live.DefaultTTL)
		blacklist = auth.NewRedisBlacklist(redisClient)
		chatLimiter = ratelimit.NewLimiter(redisClient)
	}

	tokenMgr := tokens.NewManager(cfg.Auth.SigningKey, cfg.Auth.TokenTTL())

	chatSvc, err := chat.NewService(store,
		chat.NewOllamaClient(cfg.Chat.BaseURL, cfg.Chat.Model, cfg.Chat.Timeout()),
		cfg.Chat.AnswerCache)
	if err != nil {
		log.Fatalf("[Server] chat: %v", err)
	}

	liveHandler := api.NewLiveHandler(liveCache, tokenMgr, cfg.Rig.ID)

	// Bridge broker detections to the live cache and websocket clients.
	if nc, err := nats.Connect(cfg.NATS.URL); err != nil {
		log.Printf("[Server] NATS connection failed: %v (live view disabled)", err)
	} else {
		defer nc.Close()
		subject := cfg.NATS.Subject + ".>"
		_, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			liveHandler.Broadcast(msg.Data)
			if liveCache == nil {
				return
			}
			var p events.Payload
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				log.Printf("[Server] bad detection payload: %v", err)
				return
			}
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := liveCache.Set(cctx, &p); err != nil {
				log.Printf("[Server] live cache: %v", err)
			}
			cancel()
		})
		if err != nil {
			log.Printf("[Server] NATS subscribe: %v", err)
		} else {
			log.Printf("[Server] subscribed to %s", subject)
		}
	}

	router := api.NewRouter(api.Deps{
		Sessions: &api.SessionHandler{Store: store},
		Auth: &api.AuthHandler{
			Tokens:       tokenMgr,
			Blacklist:    blacklist,
			Operator:     cfg.Auth.Operator,
			PasswordHash: cfg.Auth.PasswordHash,
		},
		Chat:        &api.ChatHandler{Service: chatSvc, Timeout: cfg.Chat.Timeout()},
		Live:        liveHandler,
		Recordings:  &api.RecordingHandler{Dir: cfg.Server.RecordingsDir},
		Health:      &api.HealthHandler{Store: store, Started: time.Now()},
		JWT:         middleware.NewJWTAuth(tokenMgr, blacklist),
		ChatLimiter: chatLimiter,
	})

	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: websocket and chat hold connections open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[Server] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Server] listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown: %v", err)
	}
	log.Printf("[Server] stopped")
}
