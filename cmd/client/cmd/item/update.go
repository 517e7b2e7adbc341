package item

import (
	"context"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var UpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a credential's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		itemID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		cred, err := promptCredential()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.UpdateItem(ctx, itemID, cred); err != nil {
			return lockedHint(err)
		}

		color.Green("Updated item %d.", itemID)
		return nil
	},
}
