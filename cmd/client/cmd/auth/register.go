package auth

import (
	"fmt"
	"time"

	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print("Username: ")
		var username string
		_, _ = fmt.Scanln(&username)

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		passwordConfirm, err := readPassword("Repeat password: ")
		if err != nil {
			return err
		}

		if password != passwordConfirm {
			return fmt.Errorf("passwords do not match")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Register(ctx, username, password); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		color.Green("Account created. Log in with \"passvault auth login\".")
		return nil
	},
}
