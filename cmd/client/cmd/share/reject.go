package share

import (
	"context"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var RejectCmd = &cobra.Command{
	Use:   "reject <share-id>",
	Short: "Reject an offered share",
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

		if err := app.RejectShare(ctx, shareID); err != nil {
			return err
		}

		color.Green("Share %d rejected.", shareID)
		return nil
	},
}
