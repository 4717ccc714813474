package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiqai/speech-gateway/internal/auth"
	"github.com/lexiqai/speech-gateway/internal/config"
)

func NewTokenCommand() *cobra.Command {
	var secret, uid string

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Mint a caller token",
		Example: `speechctl token --uid alice`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return errors.New("an auth secret is required (--secret or AUTH_SECRET)")
			}
			if uid == "" {
				return errors.New("--uid is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.NewHMACVerifier(secret).Issue(uid))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", config.GetEnv("AUTH_SECRET", ""), "HMAC secret shared with the gateway")
	cmd.Flags().StringVar(&uid, "uid", "", "Caller id to embed in the token")

	return cmd
}
