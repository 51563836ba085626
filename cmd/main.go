package main

import (
	"TokenProvider/config"
	"TokenProvider/config/server"
	"TokenProvider/internal/handler"
	"TokenProvider/internal/ports"
	"TokenProvider/internal/repository"
	"TokenProvider/internal/security"
	"TokenProvider/internal/service"
	"context"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(server.ConfigPath)
	if err != nil {
		log.Fatalf("не удалось загрузить конфигурацию: %v", err)
	}

	var tokenRepository ports.TokenRepositoryInterface
	if server.DbDriverName == "redis" {
		redisClient, err := server.SetupRedis()
		if err != nil {
			log.Fatalf("не удалось подключиться к redis: %v", err)
		}
		defer redisClient.Close()

		tokenRepository, err = repository.NewRedisTokenRepository(redisClient, cfg.Database.Retention)
		if err != nil {
			log.Fatalf("не удалось создать redis-хранилище токенов: %v", err)
		}
	} else {
		database, err := server.SetupDatabase()
		if err != nil {
			log.Fatalf("не удалось подключиться к БД: %v", err)
		}
		defer database.Close()

		tokenRepository = repository.NewTokenRepository(database)
	}

	jwtService, err := security.NewJWTService(&cfg.JWT)
	if err != nil {
		log.Fatalf("не удалось создать сервис подписи токенов: %v", err)
	}

	tokenService, err := service.NewTokenService(jwtService, tokenRepository, cfg)
	if err != nil {
		log.Fatalf("не удалось создать сервис токенов: %v", err)
	}
	tokenHandler := handler.NewTokenHandler(tokenService)

	httpServer, router := server.SetupServer()

	router.Route("/api-token", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(jwtService))
			r.Get("/me", tokenHandler.GetCurrentUser)
		})
		r.Group(func(r chi.Router) {
			r.Post("/generate", tokenHandler.GenerateTokens)
			r.Post("/refresh", tokenHandler.RefreshTokens)
		})
	})

	runServer(ctx, httpServer)
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
