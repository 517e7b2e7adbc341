package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"passvault/cmd/client/cmd/types"
	"passvault/internal/app/client"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account management",
}

func appFrom(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
