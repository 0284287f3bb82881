// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardshop/internal/apiserver/auth"
	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/apiserver/media"
	"cardshop/internal/apiserver/server"
	"cardshop/internal/config"
	"cardshop/internal/shared/credential"
	"cardshop/internal/shared/infra"
	"cardshop/pkg/logging"
)

func main() {
	// 加载配置（.env → configs/{env}.yaml → 环境变量）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: "api-server",
	})
	httpx.SetLogger(logger.Named("httpx"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	infrastructure, err := infra.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	defer infrastructure.Close()

	hasher := credential.NewHasher(cfg.Auth.BcryptCost)
	creds := credential.NewService(infrastructure.Storage, hasher)
	tokens := auth.NewTokens(auth.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	sessions := auth.NewSessions(infrastructure.Storage, tokens, hasher, infrastructure.Limiter, logger.Named("auth"))

	// 初始化管理员账号（ADMIN_ACCOUNT / ADMIN_PASSWORD 未配置时跳过）
	if err := auth.EnsureAdminUser(context.Background(), infrastructure.Storage, creds, cfg.Admin); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	var uploader media.Uploader
	if infrastructure.Objects != nil {
		uploader = infrastructure.Objects
	}

	h := server.NewHandler(server.Deps{
		Store:    infrastructure.Storage,
		Sessions: sessions,
		Creds:    creds,
		Uploader: uploader,
		CORS:     cfg.CORS,
		Logger:   logger.Named("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
