package vault

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"passvault/cmd/client/cmd/types"
	"passvault/internal/app/client"
)

var VaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Lock and unlock the vault",
}

var UnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault with the master password",
	Long: `Sends the master password to the server, which derives the master key
and keeps it for a limited window. Until then item operations fail with
"vault is locked".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print("Master password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read master password: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		expiresAt, err := app.Unlock(ctx, string(password))
		if err != nil {
			return fmt.Errorf("unlock failed: %w", err)
		}

		color.Green("Vault unlocked until %s.", expiresAt.Local().Format(time.Kitchen))
		return nil
	},
}

var LockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault immediately",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Lock(ctx); err != nil {
			return fmt.Errorf("lock failed: %w", err)
		}

		color.Green("Vault locked.")
		return nil
	},
}

func appFrom(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}
