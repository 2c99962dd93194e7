package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/auth"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/db"
	"github.com/noah-isme/backend-pos/internal/menu"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/rules"
)

func main() {
	var (
		skipRules = flag.Bool("skip-rules", false, "seed only the menu")
		hashPin   = flag.String("hash-pin", "", "print an argon2id hash for a staff PIN and exit")
		token     = flag.String("token", "", "print a staff token for id:role and exit")
		tokenTTL  = flag.Duration("token-ttl", 12*time.Hour, "lifetime of a token printed with -token")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := obs.NewLogger("console", cfg.LogLevel)

	switch {
	case *hashPin != "":
		hash, err := auth.HashPin(*hashPin)
		if err != nil {
			logger.Fatal().Err(err).Msg("hash pin")
		}
		fmt.Println(hash)
		return
	case *token != "":
		printToken(cfg, *token, *tokenTTL, logger)
		return
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, db.PoolConfig{URL: cfg.DatabaseURL, ApplicationName: "pos-seeder"})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	menuSvc, err := menu.NewService(menu.ServiceConfig{Repo: menu.PGRepository{DB: pool}, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("menu service")
	}
	items := menu.DefaultMenu()
	for _, it := range items {
		if _, err := menuSvc.UpsertItem(ctx, it); err != nil {
			logger.Fatal().Err(err).Str("item", it.Name).Msg("seed menu item")
		}
	}
	logger.Info().Int("items", len(items)).Msg("menu seeded")

	if *skipRules {
		return
	}
	registry := rules.DefaultRegistry()
	if err := rules.Seed(ctx, rules.PGRepository{DB: pool}, registry); err != nil {
		logger.Fatal().Err(err).Msg("seed rules")
	}
	logger.Info().
		Int("taxes", len(registry.Taxes())).
		Int("discounts", len(registry.Discounts())).
		Msg("rules seeded")
}

func printToken(cfg *config.Config, spec string, ttl time.Duration, logger zerolog.Logger) {
	id, role, ok := strings.Cut(spec, ":")
	if !ok || id == "" {
		logger.Fatal().Str("token", spec).Msg("expected id:role")
	}
	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   cfg.StaffTokenSecret,
		Issuer:   cfg.StaffTokenIssuer,
		Audience: cfg.StaffTokenAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("staff token verifier")
	}
	signed, err := verifier.Issue(auth.Staff{ID: id, Role: role}, ttl)
	if err != nil {
		logger.Fatal().Err(err).Msg("issue token")
	}
	fmt.Println(signed)
}
