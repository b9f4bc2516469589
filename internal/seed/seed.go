// Package seed inserts the demo accounts used for local development.
//
// The credentials below are public and must never be enabled in production.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// DemoAccount is a seeded login.
type DemoAccount struct {
	Email    string
	Password string
	Role     models.Role
}

// DemoAccounts lists the seeded logins in insertion order.
var DemoAccounts = []DemoAccount{
	{Email: "admin@brandconnect.local", Password: "admin@123", Role: models.RoleAdmin},
	{Email: "influencer@brandconnect.local", Password: "user@123", Role: models.RoleInfluencer},
	{Email: "brand@brandconnect.local", Password: "brand@123", Role: models.RoleBrand},
}

// Seed inserts the demo accounts when the users table is empty.
// It returns the number of users created, zero when data already exists.
func Seed(ctx context.Context, store storage.UserStore) (int, error) {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Println("database already seeded; skipping seed")
		return 0, nil
	}

	log.Println("seeding database with demo accounts")
	users, err := demoUsers(time.Now().UTC())
	if err != nil {
		return 0, err
	}

	created := 0
	for _, u := range users {
		if _, err := store.CreateUser(ctx, u); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// another instance seeded concurrently
				continue
			}
			return created, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		created++
	}

	log.Printf("created %d demo users", created)
	for _, acct := range DemoAccounts {
		log.Printf("  %s: %s / %s", acct.Role, acct.Email, acct.Password)
	}
	return created, nil
}

// Clear removes every user.
func Clear(ctx context.Context, store storage.UserStore) error {
	if err := store.DeleteAllUsers(ctx); err != nil {
		return err
	}
	log.Println("cleared all users")
	return nil
}

func demoUsers(now time.Time) ([]models.User, error) {
	profiles := []models.User{
		{
			FirstName:   "Admin",
			LastName:    "User",
			Bio:         "System Administrator",
			PhoneNumber: "+1-555-0100",
			Metadata: map[string]any{
				"lastLogin":  now.Format(time.RFC3339),
				"loginCount": 1,
			},
		},
		{
			FirstName:   "Sarah",
			LastName:    "Johnson",
			Bio:         "Lifestyle and fashion content creator with 250K followers",
			PhoneNumber: "+1-555-0101",
			Metadata: map[string]any{
				"followers":      250000,
				"engagementRate": 5.2,
				"platforms":      []string{"instagram", "tiktok"},
				"joinedAt":       now.AddDate(0, 0, -365).Format(time.RFC3339),
			},
		},
		{
			FirstName:   "John",
			LastName:    "Smith",
			Bio:         "Marketing Manager at TechStyle Co.",
			PhoneNumber: "+1-555-0102",
			Metadata: map[string]any{
				"company":       "TechStyle Co.",
				"industry":      "Fashion & Technology",
				"companySite":   "https://techstyle.example.com",
				"joinedAt":      now.AddDate(0, 0, -180).Format(time.RFC3339),
				"monthlyBudget": 50000,
			},
		},
	}

	users := make([]models.User, 0, len(DemoAccounts))
	for i, acct := range DemoAccounts {
		hash, err := auth.HashPassword(acct.Password)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		u := profiles[i]
		u.Email = acct.Email
		u.PasswordHash = hash
		u.Role = acct.Role
		u.EmailVerified = true
		u.IsActive = true
		users = append(users, u)
	}
	return users, nil
}
