package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var role, displayName string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account, prompting for its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createUser(cmd.Context(), a, args[0], displayName, role)
		},
	}
	create.Flags().StringVarP(&role, "role", "r", model.RoleUser, "role (user, admin)")
	create.Flags().StringVar(&displayName, "display-name", "", "display name (default: the username)")

	cmd.AddCommand(create)
	return cmd
}

func createUser(ctx context.Context, a *app, username, displayName, role string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if !model.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	if displayName == "" {
		displayName = username
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	database, err := openDatabase(ctx, a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	profile, err := store.CreateProfile(ctx, database, username, displayName, string(hash), role)
	if err != nil {
		return err
	}

	a.logger.Info("user created", "new_user", profile.Username, "role", profile.Role, "id", profile.ID)
	return nil
}

// readPassword prompts twice on a terminal. Piped input is read as a
// single line.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
