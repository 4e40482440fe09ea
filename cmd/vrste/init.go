package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/db"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.cfg.DBPath); err == nil {
				return fmt.Errorf("database %s already exists", a.cfg.DBPath)
			}
			database, password, err := initDatabase(cmd.Context(), a.cfg.DBPath, a.cfg.AdminUser)
			if err != nil {
				return err
			}
			database.Close()
			printInitResult(a.cfg.DBPath, a.cfg.AdminUser, password)
			return nil
		},
	}
	cmd.Flags().StringP("user", "u", "Admin", "admin username")
	return cmd
}

// openDatabase opens the database and applies pending migrations.
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

// initDatabase creates a new database, applies the schema, and creates the
// admin account. A failed init removes the file again.
func initDatabase(ctx context.Context, path, adminUsername string) (_ *sql.DB, _ string, err error) {
	database, err := openDatabase(ctx, path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			database.Close()
			os.Remove(path)
		}
	}()

	password, err := generatePassword(16)
	if err != nil {
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateProfile(ctx, database, adminUsername, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after signing in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
