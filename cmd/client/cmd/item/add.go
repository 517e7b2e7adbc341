package item

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		cred, err := promptCredential()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		itemID, err := app.AddItem(ctx, cred)
		if err != nil {
			return lockedHint(err)
		}

		color.Green("Stored item %d.", itemID)
		return nil
	},
}
