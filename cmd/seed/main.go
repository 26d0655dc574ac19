package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/config"
	userapp "github.com/oksasatya/user-directory/internal/application"
	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/infrastructure/storage"
	"github.com/oksasatya/user-directory/pkg/helpers"
)

const seedUsers = 10

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, "")

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open user store: %v", err)
	}
	defer store.Close()

	svc := userapp.NewService(store.Users, store.Tx, logger)
	for i := 1; i <= seedUsers; i++ {
		in := userapp.UserInput{
			Name:     fmt.Sprintf("User %d", i),
			Nickname: fmt.Sprintf("user-%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
		}
		u, err := svc.CreateUser(ctx, in)
		switch {
		case errors.Is(err, apperror.ErrUniqueViolation):
			helpers.LogInfo(logger, "skipped existing user", logrus.Fields{"nickname": in.Nickname})
		case err != nil:
			log.Fatalf("failed to seed %s: %v", in.Nickname, err)
		default:
			helpers.LogInfo(logger, "seeded user", logrus.Fields{"user_id": u.ID, "nickname": u.Nickname, "email": u.Email})
		}
	}
}
