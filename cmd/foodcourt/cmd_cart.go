package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"foodcourt/internal/app"
	"foodcourt/internal/cart"
	"foodcourt/internal/checkout"
	"foodcourt/internal/domain"
)

var (
	serviceMode   string
	customerName  string
	customerEmail string
	customerPhone string
	paymentMethod string
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and edit the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
			return nil
		})
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart",
	RunE:  cartCmd.RunE,
}

var cartAddCmd = &cobra.Command{
	Use:   "add [item-id]",
	Short: "Add one unit of a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			if err := a.RefreshCatalog(ctx); err != nil {
				return err
			}
			if err := a.AddToCart(args[0], domain.FulfillmentMode(serviceMode), time.Now()); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
			return nil
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove [item-id]",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			a.Cart.RemoveItem(args[0])
			printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
			return nil
		})
	},
}

var cartQtyCmd = &cobra.Command{
	Use:   "qty [item-id] [quantity]",
	Short: "Set a line's quantity; zero removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return domain.Invalid("quantity", "%q is not a number", args[1])
		}
		return withApp(true, func(ctx context.Context, a *app.App) error {
			a.Cart.SetQuantity(args[0], qty)
			printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
			return nil
		})
	},
}

var cartModeCmd = &cobra.Command{
	Use:   "mode [item-id] [dine-in|takeaway]",
	Short: "Choose dine-in or takeaway for a line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := domain.FulfillmentMode(args[1])
		if !mode.Valid() {
			return domain.Invalid("mode", "choose dine-in or takeaway")
		}
		return withApp(true, func(ctx context.Context, a *app.App) error {
			a.Cart.SetFulfillmentMode(args[0], mode)
			printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
			return nil
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			a.Cart.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place the order for everything in the cart",
	Long: `Place the order. Cash is always accepted; card and UPI need a payment
provider integration and are refused otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			res, err := a.Checkout.Place(ctx, checkout.Request{
				Customer: checkout.Customer{Name: customerName, Email: customerEmail, Phone: customerPhone},
				Method:   domain.PaymentMethod(paymentMethod),
			}, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s placed, %s to pay by %s\n",
				res.OrderID, domain.FormatCurrency(res.Total), res.Method)
			return nil
		})
	},
}

func init() {
	cartAddCmd.Flags().StringVar(&serviceMode, "mode", "", "dine-in or takeaway (can be set later)")

	checkoutCmd.Flags().StringVar(&customerName, "name", "", "Name on the order (default: account name)")
	checkoutCmd.Flags().StringVar(&customerEmail, "email", "", "Email for the receipt (required)")
	checkoutCmd.Flags().StringVar(&customerPhone, "phone", "", "Contact phone (default: signed-in number)")
	checkoutCmd.Flags().StringVar(&paymentMethod, "pay", string(domain.PaymentCash), "cash, card or upi")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartQtyCmd)
	cartCmd.AddCommand(cartModeCmd)
	cartCmd.AddCommand(cartClearCmd)
}

func printCart(w io.Writer, s cart.Snapshot) {
	if len(s.Lines) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range s.Lines {
		mode := string(l.Mode)
		if mode == "" {
			mode = "(choose service)"
		}
		fmt.Fprintf(tw, "%s\t%s\tx%d\t%s\t%s\n", l.ItemID, l.Name, l.Quantity, domain.FormatCurrency(l.Subtotal()), mode)
	}
	fmt.Fprintf(tw, "\t%d items\t\t%s\t\n", s.TotalItems, domain.FormatCurrency(s.TotalAmount))
	_ = tw.Flush()
}
