package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication with the conversion service",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authStatusCmd())

	return cmd
}

func authLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the auth token locally",
		RunE:  runAuthLogin,
	}

	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (or set S2S_PASSWORD)")

	return cmd
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		return fmt.Errorf("--email is required")
	}
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("S2S_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("provide --password or set S2S_PASSWORD")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := newAPIClient(ctx, store)
	if err != nil {
		return err
	}

	token, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.SetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Logged in as " + email))
	return nil
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored auth token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearToken(ctx); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Logged out"))
			return nil
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login state and remaining page quota",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := requireToken(ctx, store); err != nil {
				return err
			}

			client, err := newAPIClient(ctx, store)
			if err != nil {
				return err
			}

			usage, err := client.GetUsage(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch usage: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Logged in"))
			fmt.Printf("Pages used: %d of %d (%d remaining)\n",
				usage.PagesUsed, usage.PagesLimit, usage.Remaining())
			if usage.Remaining() == 0 {
				fmt.Println(cli.FormatWarning("Page quota exhausted. Upgrade your plan to convert more statements."))
			}
			return nil
		},
	}
}
