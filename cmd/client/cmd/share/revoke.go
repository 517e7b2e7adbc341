package share

import (
	"context"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var RevokeCmd = &cobra.Command{
	Use:   "revoke <share-id>",
	Short: "Revoke a share you sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		shareID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.RevokeShare(ctx, shareID); err != nil {
			return err
		}

		color.Green("Share %d revoked.", shareID)
		return nil
	},
}
