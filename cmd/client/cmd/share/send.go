package share

import (
	"context"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var SendCmd = &cobra.Command{
	Use:   "send <item-id> <receiver>",
	Short: "Offer an item to another user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		itemID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		shareID, err := app.ShareItem(ctx, itemID, args[1])
		if err != nil {
			return lockedHint(err)
		}

		color.Green("Share %d offered to %s. It expires in 24 hours unless accepted.", shareID, args[1])
		return nil
	},
}
