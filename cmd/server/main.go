package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hris-auth/internal/cache"
	"github.com/iliyamo/hris-auth/internal/config"
	"github.com/iliyamo/hris-auth/internal/database"
	"github.com/iliyamo/hris-auth/internal/handler"
	"github.com/iliyamo/hris-auth/internal/queue"
	"github.com/iliyamo/hris-auth/internal/repository"
	"github.com/iliyamo/hris-auth/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql connect failed: %v", err)
	}

	// Redis is not optional here: the token denylist lives in it and
	// revocation checks fail closed, so without the store nobody could
	// authenticate anyway.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connect failed")
	}

	users := repository.NewUserRepo(db)
	companies := repository.NewCompanyRepo(db)
	blacklist := cache.NewBlacklist(rdb)
	sessions := cache.NewSessionCache(rdb, cfg.SessionTTL)
	codes := cache.NewOTPStore(rdb, cfg.OTPTTL)
	publisher := queue.NewPublisher(queue.BrokerURL())

	a := handler.NewAuthHandler(cfg, users, companies, blacklist, sessions, codes, publisher)

	e := echo.New()
	router.RegisterRoutes(e, a, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
