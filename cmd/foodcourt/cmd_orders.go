package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"foodcourt/internal/app"
	"foodcourt/internal/domain"
)

var (
	qrOut   string
	comment string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Order history, cancellation and pickup codes",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			list, err := a.Orders.History(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no orders yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, o := range list {
				names := make([]string, 0, len(o.Items))
				for _, it := range o.Items {
					names = append(names, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", o.OrderID, o.CreatedAt.Local().Format(time.DateTime),
					o.Status, o.PaymentMethod, domain.FormatCurrency(o.TotalAmount), strings.Join(names, ", "))
			}
			return tw.Flush()
		})
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel [order-id]",
	Short: "Cancel an order that has not been paid or completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			if err := a.Orders.Cancel(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s cancelled\n", args[0])
			return nil
		})
	},
}

var ordersQRCmd = &cobra.Command{
	Use:   "qr [order-id]",
	Short: "Fetch the pickup QR code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			qr, err := a.Orders.PickupQR(ctx, args[0])
			if err != nil {
				return err
			}
			if qrOut == "" {
				fmt.Fprintln(cmd.OutOrStdout(), qr.DataURL)
				return nil
			}
			if err := os.WriteFile(qrOut, qr.Image, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", qrOut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", qrOut, qr.MediaType, len(qr.Image))
			return nil
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback [rating 1-5]",
	Short: "Rate your most recent order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rating int
		if _, err := fmt.Sscan(args[0], &rating); err != nil {
			return domain.Invalid("rating", "please provide a rating between 1 and 5")
		}
		return withApp(true, func(ctx context.Context, a *app.App) error {
			fb, err := a.Orders.SubmitFeedback(rating, comment, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "thanks! %d/5 recorded for %s\n", fb.Rating, fb.OrderID)
			return nil
		})
	},
}

func init() {
	ordersQRCmd.Flags().StringVarP(&qrOut, "out", "o", "", "Write the QR image to this file instead of printing the data URL")
	feedbackCmd.Flags().StringVar(&comment, "comment", "", "Optional comment")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersCancelCmd)
	ordersCmd.AddCommand(ordersQRCmd)
}
