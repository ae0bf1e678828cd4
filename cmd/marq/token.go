package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/config"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.SignToken(cfg.Auth.JWTSecret, args[0], cfg.Auth.TokenLifetime)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}
}
