package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/utafrali/laptopstore/internal/app"
	"github.com/utafrali/laptopstore/internal/cart"
	"github.com/utafrali/laptopstore/internal/domain"
)

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart",
	}
	cmd.AddCommand(
		cartListCmd(),
		cartAddCmd(),
		cartUpdateCmd(),
		cartRemoveCmd(),
		cartClearCmd(),
	)
	return cmd
}

func cartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Cart.FetchCart(ctx))
			})
		},
	}
}

func cartAddCmd() *cobra.Command {
	var (
		quantity int
		rentDays int
		price    float64
	)

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product; --rent-days makes it a rental",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cart.AddItemInput{
				ProductID: args[0],
				Quantity:  quantity,
				Kind:      domain.KindSale,
				Price:     price,
			}
			if rentDays > 0 {
				in.Kind = domain.KindRent
				in.RentalDurationDays = rentDays
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				c, err := a.Cart.AddToCart(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	cmd.Flags().IntVar(&rentDays, "rent-days", 0, "rental duration in days")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price; looked up when zero")

	return cmd
}

func cartUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <item-id> <quantity>",
		Short: "Set a line's quantity; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number: %q", args[1])
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				c, err := a.Cart.UpdateCartItem(ctx, args[0], quantity)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}

func cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				c, err := a.Cart.RemoveFromCart(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}

func cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				c, err := a.Cart.ClearCart(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}
