package share

import (
	"context"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var AcceptCmd = &cobra.Command{
	Use:   "accept <share-id>",
	Short: "Accept an offered share into your vault",
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

		itemID, err := app.AcceptShare(ctx, shareID)
		if err != nil {
			return lockedHint(err)
		}

		color.Green("Share %d accepted, stored as item %d.", shareID, itemID)
		return nil
	},
}
