package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"daybook/actions"
	"daybook/auth"
	"daybook/clock"
	"daybook/config"
	"daybook/db"
	"daybook/entries"
	"daybook/logging"
	"daybook/models"
	"daybook/structure"
)

// seed creates a demo structure and two actions for one user and prints a
// bearer token for that user. It refuses to run against production.
func main() {
	userID := flag.String("user", "demo-user", "user id to seed")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production store")
	}
	if cfg.Store.Driver == config.DriverMemory {
		log.Fatal("seeding the memory driver has no effect; use sqlite or firestore")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal("failed to initialize logging", "err", err)
	}

	ctx := context.Background()
	var store db.Store
	switch cfg.Store.Driver {
	case config.DriverFirestore:
		store, err = db.NewFirestoreDB(ctx, cfg.Store.FirebaseProjectID, cfg.Store.CredentialsPath, cfg.Store.FirestoreCollection)
	default:
		store, err = db.NewSQLiteDB(ctx, cfg.Store.SQLitePath)
	}
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	defer store.Close()

	calendar, err := clock.NewZoneCalendar(cfg.Calendar.Timezone)
	if err != nil {
		logger.Fatal("failed to load calendar", "err", err)
	}
	today := clock.Today(ctx, calendar, *userID)

	registry := structure.NewRegistry(store)
	engine := actions.NewEngine(store, registry, entries.NewStore(store, registry), calendar, logger)

	logger.Info("seeding demo structure", "user", *userID, "effectiveFrom", today)
	if _, err := registry.Save(ctx, *userID, demoGroups(), nil, today); err != nil {
		logger.Fatal("failed to seed structure", "err", err)
	}

	glass := 250.0
	seedActions := []actions.NewAction{
		{
			Name:    "Glass of water",
			FieldID: "water",
			Options: []models.ActionOption{{FieldTypeID: "water-ml", Increment: &glass}},
		},
		{
			Name:          "Morning walk",
			FieldID:       "walk",
			IsDailyAction: true,
		},
	}
	for _, a := range seedActions {
		if _, err := engine.Add(ctx, *userID, a); err != nil {
			logger.Fatal("failed to seed action", "action", a.Name, "err", err)
		}
	}

	token, err := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Expiration).GenerateToken(*userID, nil)
	if err != nil {
		logger.Fatal("failed to mint token", "err", err)
	}

	logger.Info("database seeding completed", "user", *userID, "tokenExpiresIn", cfg.Auth.Expiration.Round(time.Minute))
	fmt.Println(token)
}

func demoGroups() []models.Group {
	return []models.Group{
		{
			ID:   "health",
			Name: "Health",
			Fields: []models.Field{
				{
					ID:   "water",
					Name: "Water",
					Types: []models.FieldType{
						{ID: "water-ml", Kind: models.KindNumber, Options: models.NumberOptions{Unit: "ml"}},
					},
				},
				{
					ID:   "walk",
					Name: "Walk",
					Types: []models.FieldType{
						{ID: "walk-time", Kind: models.KindTimeSelect, Options: models.TimeSelectOptions{Step: 15}},
					},
					Order: 1,
				},
			},
		},
		{
			ID:    "mood",
			Name:  "Mood",
			Order: 1,
			Fields: []models.Field{
				{
					ID:   "headache",
					Name: "Headache",
					Types: []models.FieldType{
						{ID: "headache-severity", Kind: models.KindSeverity, Options: models.SeverityOptions{Levels: 5}},
					},
				},
			},
		},
	}
}
