// Seeds the default plan catalog. Safe to run repeatedly: existing slugs are
// left untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"captive-wifi-billing/internal/config"
	"captive-wifi-billing/internal/domain"
	pg "captive-wifi-billing/internal/infra/db/postgres"
	"captive-wifi-billing/internal/usecase"
)

type seedPlan struct {
	name        string
	slug        string
	price       int64
	duration    string
	description string
}

var defaultPlans = []seedPlan{
	{"Basic Plan", "basic-plan", 50, "1 Day", "Perfect for beginners."},
	{"Standard Plan", "standard-plan", 500, "1 Week", "Best value plan."},
	{"Premium Plan", "premium-plan", 1500, "1 Month", "Full access plan."},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))
	for _, p := range defaultPlans {
		if _, err := planUC.Create(ctx, p.name, p.slug, p.price, p.duration, p.description); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				log.Printf("plan already exists: %s", p.name)
				continue
			}
			log.Fatalf("seed plan %s: %v", p.slug, err)
		}
		log.Printf("inserted plan: %s", p.name)
	}
	log.Println("default plans check completed")
}
