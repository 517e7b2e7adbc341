package cmd

import (
	"passvault/cmd/client/cmd/auth"
	"passvault/cmd/client/cmd/item"
	"passvault/cmd/client/cmd/share"
	"passvault/cmd/client/cmd/vault"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(vault.VaultCmd)
	vault.VaultCmd.AddCommand(vault.UnlockCmd)
	vault.VaultCmd.AddCommand(vault.LockCmd)

	rootCmd.AddCommand(item.ItemCmd)
	item.ItemCmd.AddCommand(item.AddCmd)
	item.ItemCmd.AddCommand(item.ListCmd)
	item.ItemCmd.AddCommand(item.UpdateCmd)
	item.ItemCmd.AddCommand(item.DeleteCmd)

	rootCmd.AddCommand(share.ShareCmd)
	share.ShareCmd.AddCommand(share.SendCmd)
	share.ShareCmd.AddCommand(share.AcceptCmd)
	share.ShareCmd.AddCommand(share.RejectCmd)
	share.ShareCmd.AddCommand(share.RevokeCmd)
	share.ShareCmd.AddCommand(share.SentCmd)
	share.ShareCmd.AddCommand(share.ReceivedCmd)
}
