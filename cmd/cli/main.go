package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nimasrn/parcel-shipping/internal/config"
	"github.com/nimasrn/parcel-shipping/internal/identity"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/pg"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
)

// usage:
//
//	cli migrate --dir=./migrations
//	cli session --id=<user id> --email=<email> --name=<full name>
func main() {
	logger.SetService("cli")
	defer logger.Sync()

	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	cmd := "migrate"
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "--") {
		cmd = os.Args[1]
	}

	switch cmd {
	case "migrate":
		migrate()
	case "session":
		issueSession()
	default:
		logger.Error("unknown command", "command", cmd)
	}
}

func migrate() {
	pgConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}
	err := pg.Migrate(pgConf, getFlag("dir", "./migrations"))
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
	}
}

// issueSession seeds a session for local testing, signing in itself is
// handled outside this service.
func issueSession() {
	u := model.User{
		ID:       getFlag("id", ""),
		Email:    getFlag("email", ""),
		FullName: getFlag("name", ""),
	}
	adapter, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:    []string{config.Get().RedisAddr},
		DB:       config.Get().RedisDatabase,
		Username: config.Get().RedisUsername,
		Password: config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	token, err := identity.NewSessionStore(adapter, config.Get().SessionTTL).Issue(context.Background(), u)
	if err != nil {
		logger.Error("failed to issue session", "error", err)
		return
	}
	fmt.Println(token)
}

func getEnvPath() string {
	if p := config.EnvPathFromArgs(os.Args); p != "" {
		return p
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getFlag(name, def string) string {
	prefix := "--" + name + "="
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return def
}
