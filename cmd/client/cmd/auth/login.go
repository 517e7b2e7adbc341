package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
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

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Login(ctx, username, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		color.Green("Logged in.")
		fmt.Println("Unlock your vault with \"passvault vault unlock\".")
		return nil
	},
}
