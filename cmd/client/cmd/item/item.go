package item

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"passvault/cmd/client/cmd/types"
	"passvault/internal/app/client"
)

var ItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage vault items",
}

func appFrom(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

// promptCredential gathers a credential interactively; the site password is
// read without echo.
func promptCredential() (client.Credential, error) {
	var cred client.Credential

	fmt.Print("Domain: ")
	_, _ = fmt.Scanln(&cred.Domain)

	fmt.Print("Username: ")
	_, _ = fmt.Scanln(&cred.Username)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return cred, fmt.Errorf("failed to read password: %w", err)
	}
	cred.Password = string(password)

	return cred, nil
}

func lockedHint(err error) error {
	if errors.Is(err, client.ErrVaultLocked) {
		return fmt.Errorf("vault is locked, run \"passvault vault unlock\" first")
	}
	return err
}
