package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"seatline/internal/events"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/shared/config"
	"seatline/internal/shared/constants"
	"seatline/internal/shared/database"
	"seatline/internal/tokens"
	"seatline/internal/users"
	"seatline/pkg/cache"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenCount = 100

type Seeder struct {
	db  *database.DB
	cfg *config.Config
}

func main() {
	fmt.Println("Starting Seatline database seeder...")
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, cfg: cfg}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nSeeding completed.")
}

// CleanDatabase removes every row, dependents first. Plain deletes work on
// both postgres and mysql.
func (s *Seeder) CleanDatabase() error {
	models := []interface{}{
		&reservations.ReservationSeat{},
		&reservations.Reservation{},
		&tokens.Token{},
		&events.Event{},
		&seats.Seat{},
		&users.User{},
	}

	return s.db.SQL.Transaction(func(tx *gorm.DB) error {
		for _, model := range models {
			res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model)
			if res.Error != nil {
				return fmt.Errorf("failed to clear %T: %w", model, res.Error)
			}
			fmt.Printf("  cleared %T (%d rows)\n", model, res.RowsAffected)
		}
		return users.EnsureDeletedUser(tx)
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	var cacheService cache.Service
	if s.db.Redis != nil {
		cacheService = cache.NewService(s.db.Redis)
	}
	eventRepo := events.NewRepository(s.db.SQL)

	seatService := seats.NewService(seats.NewRepository(s.db.SQL), eventRepo, cacheService)
	created, err := seatService.SeedLayout(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed seats: %w", err)
	}
	fmt.Printf("  created %d seats\n", created)

	issued, err := tokens.NewService(tokens.NewRepository(s.db.SQL)).Issue(ctx, tokenCount, tokens.DefaultValidity)
	if err != nil {
		return fmt.Errorf("failed to seed tokens: %w", err)
	}
	fmt.Printf("  issued %d tokens valid until %s\n", len(issued), issued[0].ValidUntil.Format("2006-01-02"))

	userIDs, err := s.SeedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedEvents(ctx, eventRepo, userIDs["admin"]); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if cacheService != nil {
		if err := cacheService.DeletePattern(ctx, constants.CACHE_PREFIX+":*"); err != nil {
			log.Printf("Warning: failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

// SeedUsers creates one admin and a few regular users. Passwords are
// <first name in lower case>123 unless SEED_ADMIN_PASSWORD overrides the admin's.
func (s *Seeder) SeedUsers(ctx context.Context) (map[string]uuid.UUID, error) {
	fmt.Println("  seeding users...")
	repo := users.NewRepository(s.db.SQL)

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		password  string
		role      users.Role
	}{
		{"admin", "Admin", "", "admin@seatline.local", adminPassword, users.RoleAdmin},
		{"luigi", "Luigi", "", "luigi@seatline.local", "luigi123", users.RoleUser},
		{"mario", "Mario", "", "mario@seatline.local", "mario123", users.RoleUser},
		{"peach", "Peach", "", "peach@seatline.local", "peach123", users.RoleUser},
	}

	userIDs := make(map[string]uuid.UUID, len(usersData))
	for _, userData := range usersData {
		hashed, err := bcrypt.GenerateFromPassword([]byte(userData.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		user := &users.User{
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashed),
			Role:      userData.role,
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    created user %s (%s)\n", user.Email, user.Role)
	}
	return userIDs, nil
}

// SeedEvents creates a sample event one month ahead at 20:00 local time
func (s *Seeder) SeedEvents(ctx context.Context, repo events.Repository, adminID uuid.UUID) error {
	fmt.Println("  seeding events...")
	loc := s.cfg.Locale.Location()
	day := time.Now().In(loc).AddDate(0, 1, 0)

	event := &events.Event{
		Title:       "Princess Peach in the Enchanted Tap Dance Kingdom",
		DateTime:    time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, loc).UTC(),
		MaxSeatings: 100,
		MaxTickets:  3,
		CreatedBy:   &adminID,
	}
	if err := repo.Create(ctx, event); err != nil {
		return err
	}
	fmt.Printf("    created event %q on %s\n", event.Title, event.DateTime.In(loc).Format(time.RFC1123))
	return nil
}
