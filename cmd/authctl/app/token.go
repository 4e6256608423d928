package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type tokenOutput struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
	Scope       string    `json:"scope,omitempty"`
	Jti         string    `json:"jti,omitempty"`
}

func newTokenCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		scopes       []string
		formAuth     bool
		raw          bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request an access token with the client_credentials grant",
		Example: `  authctl token --client-id administration --client-secret password
  authctl token --client-id client --client-secret password --scope read --raw`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := clientcredentials.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenURL:     strings.TrimSuffix(serverURL(cmd), "/") + authsdk.PathToken,
				Scopes:       scopes,
				AuthStyle:    oauth2.AuthStyleInHeader,
			}
			if formAuth {
				cfg.AuthStyle = oauth2.AuthStyleInParams
			}

			tok, err := cfg.Token(cmd.Context())
			if err != nil {
				return fmt.Errorf("token request failed: %w", err)
			}

			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
				return err
			}

			out := tokenOutput{
				AccessToken: tok.AccessToken,
				TokenType:   tok.TokenType,
				Expiry:      tok.Expiry,
			}
			if s, ok := tok.Extra("scope").(string); ok {
				out.Scope = s
			}
			if jti, ok := tok.Extra("jti").(string); ok {
				out.Jti = jti
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scopes to request (repeatable); empty requests every registered scope")
	cmd.Flags().BoolVar(&formAuth, "form", false, "Send credentials in the form body (client_secret_post) instead of HTTP Basic")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the access token")
	_ = cmd.MarkFlagRequired("client-id")
	_ = cmd.MarkFlagRequired("client-secret")
	return cmd
}
