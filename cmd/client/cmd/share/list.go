package share

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"passvault/internal/app/client"
)

var statusFilter string

var SentCmd = &cobra.Command{
	Use:   "sent",
	Short: "List shares you sent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		shares, err := app.SentShares(ctx)
		if err != nil {
			return err
		}

		printShares(shares, true)
		return nil
	},
}

var ReceivedCmd = &cobra.Command{
	Use:   "received",
	Short: "List shares offered to you",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		shares, err := app.ReceivedShares(ctx, statusFilter)
		if err != nil {
			return err
		}

		printShares(shares, false)
		return nil
	},
}

func init() {
	ReceivedCmd.Flags().StringVar(&statusFilter, "status", "", "filter by status (pending, accepted, rejected, revoked, expired)")
}

func printShares(shares []client.ShareView, sent bool) {
	if len(shares) == 0 {
		fmt.Println("No shares.")
		return
	}

	bold := color.New(color.Bold)
	for _, sh := range shares {
		counterpart := sh.SenderUsername
		if sent {
			counterpart = sh.ReceiverUsername
		}

		bold.Printf("[%d] %s\n", sh.ShareID, sh.Domain)
		fmt.Printf("    with:    %s\n", counterpart)
		fmt.Printf("    status:  %s\n", colorStatus(sh.Status))
		fmt.Printf("    expires: %s\n", sh.ExpiresAt.Local().Format(time.DateTime))
		if sh.AcceptedAt != nil {
			fmt.Printf("    accepted: %s\n", sh.AcceptedAt.Local().Format(time.DateTime))
		}
	}
}

func colorStatus(status string) string {
	switch status {
	case "accepted":
		return color.GreenString(status)
	case "rejected", "revoked", "expired":
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
