package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/utafrali/laptopstore/internal/app"
)

func wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Inspect and change the wishlist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "count",
			Short: "Print the wishlist badge count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					return printJSON(cmd.OutOrStdout(), map[string]int{"count": a.Wishlist.FetchWishlistCount(ctx)})
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the hearted product ids",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					list, err := a.Wishlist.Members(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), list)
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <product-id>",
			Short: "Heart or un-heart a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					member, err := a.Wishlist.ToggleWishlist(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"product_id": args[0],
						"member":     member,
						"count":      a.Wishlist.Count(),
					})
				})
			},
		},
	)
	return cmd
}
