package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"foodcourt/internal/app"
	"foodcourt/internal/catalog"
	"foodcourt/internal/domain"
	"foodcourt/internal/realtime"
)

var showAll bool

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show the menu for the current time window",
	Long: `Fetch the menu and list it by section. Without --all only items that can be
ordered right now are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			if err := a.RefreshCatalog(ctx); err != nil {
				return err
			}
			printMenu(cmd.OutOrStdout(), a, time.Now(), showAll)
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live menu and stock changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(false, func(ctx context.Context, a *app.App) error {
			if a.Realtime == nil {
				return fmt.Errorf("realtime transport is disabled in the config")
			}
			out := cmd.OutOrStdout()
			a.Realtime.OnStateChange(func(s realtime.State) {
				fmt.Fprintf(out, "-- %s\n", s)
			})
			cancel := a.Catalog.Subscribe(func(s catalog.State) {
				fmt.Fprintf(out, "-- catalog: %d items, %d orderable now\n", s.Len(), len(a.Catalog.Orderable(time.Now())))
			})
			defer cancel()
			return a.Run(ctx)
		})
	},
}

func init() {
	menuCmd.Flags().BoolVar(&showAll, "all", false, "Include items that are unavailable right now")
}

func printMenu(w io.Writer, a *app.App, now time.Time, all bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, win := range []domain.Window{domain.WindowMorning, domain.WindowAfternoon} {
		fmt.Fprintf(tw, "%s\n", catalog.WindowLabel(win))
		for _, it := range a.Catalog.Section(win) {
			orderable := catalog.IsOrderable(it, now)
			if !all && !orderable {
				continue
			}
			status := "available"
			switch {
			case !it.IsActive:
				status = "inactive"
			case it.Stock == 0:
				status = "sold out"
			case !orderable:
				status = "not now"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d left\t%s\n",
				it.ID, it.Name, domain.FormatCurrency(it.UnitPrice), catalog.TierFor(it.Category), it.Stock, status)
		}
	}
}
