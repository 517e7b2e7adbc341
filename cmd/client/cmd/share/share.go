package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"passvault/cmd/client/cmd/types"
	"passvault/internal/app/client"
)

var ShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share credentials with other users",
}

func appFrom(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

func lockedHint(err error) error {
	if errors.Is(err, client.ErrVaultLocked) {
		return fmt.Errorf("vault is locked, run \"passvault vault unlock\" first")
	}
	return err
}
