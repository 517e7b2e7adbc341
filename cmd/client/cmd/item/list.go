package item

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	offline       bool
	showPasswords bool
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault items",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		items, err := app.Items(ctx)
		if err != nil {
			if !offline {
				return lockedHint(err)
			}
			// Fall back to the local cache; passwords are never cached.
			items, err = app.CachedItems()
			if err != nil {
				return err
			}
			color.Yellow("Offline: showing cached listing without passwords.")
		}

		if len(items) == 0 {
			fmt.Println("The vault is empty.")
			return nil
		}

		bold := color.New(color.Bold)
		for _, item := range items {
			if item.DecryptError != "" {
				color.Red("[%d] corrupted: %s", item.ID, item.DecryptError)
				continue
			}

			bold.Printf("[%d] %s\n", item.ID, item.Domain)
			fmt.Printf("    username: %s\n", item.Username)
			if showPasswords && item.Password != "" {
				fmt.Printf("    password: %s\n", item.Password)
			}
			fmt.Printf("    updated:  %s\n", item.UpdatedAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

func init() {
	ListCmd.Flags().BoolVar(&offline, "offline", false, "use the local cache if the server is unreachable")
	ListCmd.Flags().BoolVar(&showPasswords, "show-passwords", false, "print passwords in the clear")
}
