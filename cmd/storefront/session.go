package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utafrali/laptopstore/internal/app"
)

func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and move the guest cart and wishlist to the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				sess, err := a.Session.Login(ctx, username, password)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "signed in as %s\n", sess.User.Email)
				return printJSON(cmd.OutOrStdout(), summary(a))
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (or STOREFRONT_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Session.Logout(ctx)
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session and badge counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), summary(a))
			})
		},
	}
}

type sessionSummary struct {
	Status        string `json:"status"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	CartCount     int    `json:"cart_count"`
	WishlistCount int    `json:"wishlist_count"`
}

func summary(a *app.App) sessionSummary {
	s := a.Session.Snapshot()
	out := sessionSummary{
		Status:        string(s.Status),
		UserID:        s.UserID(),
		CartCount:     a.Cart.Count(),
		WishlistCount: a.Wishlist.Count(),
	}
	if s.User != nil {
		out.Email = s.User.Email
	}
	return out
}
