/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/db"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// seedCmd populates the database with demo accounts, listings and groups.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx := cmd.Context()
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer dbConn.Close()

		return seed(ctx, dbConn)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedLocations = []string{
	"Warsaw", "Krakow", "Gdansk", "Wroclaw", "Poznan",
	"Lodz", "Katowice", "Lublin", "Szczecin", "Bialystok",
}

func seed(ctx context.Context, dbConn *sql.DB) error {
	users := store.NewUserRepository(dbConn)
	listings := store.NewListingRepository(dbConn)
	groups := store.NewGroupRepository(dbConn)

	admin, err := seedUser(ctx, users, types.User{
		Name:     "Admin",
		Surname:  "Admin",
		Username: "admin",
		Email:    "admin@flatclub.com",
		Role:     "admin",
	}, "adminpassword")
	if err != nil {
		return err
	}

	owners := []types.User{admin}
	for i := 1; i <= 9; i++ {
		user, err := seedUser(ctx, users, types.User{
			Name:     fmt.Sprintf("Tester%d", i),
			Surname:  "Demo",
			Username: fmt.Sprintf("tester%d", i),
			Email:    fmt.Sprintf("tester%d@flatclub.com", i),
			Role:     "user",
			Preferences: &types.Preferences{
				Smoking:       i%3 == 0,
				Vegan:         i%4 == 0,
				PetFriendly:   i%2 == 0,
				PartyFriendly: i%5 == 0,
			},
		}, "testpassword")
		if err != nil {
			return err
		}
		owners = append(owners, user)
	}

	for i := 0; i < 20; i++ {
		owner := owners[i%len(owners)]
		listing := types.Listing{
			OwnerID:     owner.ID,
			Title:       fmt.Sprintf("Cozy flat %d", i+1),
			Description: fmt.Sprintf("A comfortable place in %s, close to public transport.", seedLocations[i%len(seedLocations)]),
			Price:       float64(500 + i*100),
			Location:    seedLocations[i%len(seedLocations)],
			IsRental:    true,
			Status:      types.DefaultListingStatus,
			Images:      []string{fmt.Sprintf("uploads/flat%d.png", i%5+1)},
			Preferences: &types.Preferences{
				Smoking:       i%3 == 0,
				Vegan:         i%4 == 0,
				PetFriendly:   i%2 == 0,
				PartyFriendly: i%5 == 0,
			},
		}

		created, err := listings.Create(ctx, listing)
		if err != nil {
			return fmt.Errorf("seed listing %d: %w", i+1, err)
		}

		if i < 10 {
			group := types.Group{
				Name:        fmt.Sprintf("Flatmates of %s %d", seedLocations[i%len(seedLocations)], i+1),
				Description: "Looking for easygoing flatmates to share this place.",
				ListingID:   created.ID,
				OwnerID:     owner.ID,
			}
			if _, err := groups.Create(ctx, group); err != nil {
				return fmt.Errorf("seed group %d: %w", i+1, err)
			}
		}
	}

	fmt.Println("Seed data created")
	return nil
}

func seedUser(ctx context.Context, users *store.UserRepository, user types.User, password string) (types.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = string(hash)

	created, err := users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return users.GetByEmail(ctx, user.Email)
		}
		return types.User{}, fmt.Errorf("seed user %s: %w", user.Email, err)
	}
	return created, nil
}
