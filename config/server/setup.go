package server

import (
	"TokenProvider/internal"
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var (
	ConfigPath         string
	DbDriverName       string
	DbConnectionString string
	RedisAddr          string
	ServerAddress      string
)

func init() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	envPath := filepath.Join(wd, "..", ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf(".env не найден по пути %s, используются переменные окружения", envPath)
	}

	ConfigPath = os.Getenv("CONFIG_PATH")
	if ConfigPath == "" {
		ConfigPath = filepath.Join(wd, "..", "config.yaml")
	}
	DbDriverName = os.Getenv("DATABASE_DRIVER")
	DbConnectionString = os.Getenv("DATABASE_CONNECTION_URL")
	RedisAddr = os.Getenv("REDIS_ADDR")
	ServerAddress = os.Getenv("SERVER_ADDRESS")
}

func SetupDatabase() (*internal.Database, error) {
	database, err := internal.NewDatabaseConnection(DbDriverName, DbConnectionString)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения: %w", err)
	}
	return database, nil
}

func SetupRedis() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к redis: %w", err)
	}

	log.Println("Подключение к redis успешно выполнено")
	return client, nil
}

func SetupServer() (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    ServerAddress,
		Handler: router,
	}

	return server, router
}
