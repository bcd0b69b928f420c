package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Dewanik/voice-ios-budget-server/internal/config"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// Accounts are provisioned out of band: there is no registration endpoint,
// the operator runs this tool against the shared database instead.
func main() {
	_ = godotenv.Load()

	username := flag.String("username", "", "login name for the new account (required)")
	email := flag.String("email", "", "contact e-mail for the new account")
	password := flag.String("password", "", "initial password (required)")
	deactivate := flag.Bool("deactivate", false, "deactivate an existing account instead of creating one")
	activate := flag.Bool("activate", false, "reactivate an existing account instead of creating one")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "error: -username is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open database %s: %v\n", cfg.SQLiteDBPath, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *deactivate || *activate {
		if err := toggleActive(ctx, store, *username, *activate); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *password == "" {
		fmt.Fprintln(os.Stderr, "error: -password is required")
		flag.Usage()
		os.Exit(2)
	}

	user, err := store.CreateUser(ctx, *username, *email, *password)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			fmt.Fprintf(os.Stderr, "error: username %q is already taken\n", *username)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created user %s (id %d)\n", user.Username, user.ID)
}

func toggleActive(ctx context.Context, store *storage.SQLiteRepository, username string, active bool) error {
	user, err := store.FindUser(ctx, username)
	if err != nil {
		return fmt.Errorf("find user %q: %w", username, err)
	}
	if err := store.SetUserActive(ctx, user.ID, active); err != nil {
		return fmt.Errorf("update user %q: %w", username, err)
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("%s user %s (id %d)\n", state, user.Username, user.ID)
	return nil
}
