package ctl

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
	"subtrack/internal/notify"
	"subtrack/internal/services"
)

func newListCmd(st *rootState) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's subscriptions by next billing date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := st.requireUser()
			if err != nil {
				return err
			}
			mode, err := core.ParseViewMode(view)
			if err != nil {
				return err
			}
			subs, err := st.app.Service.ListSubscriptions(cmd.Context(), user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "\n  No subscriptions.")
				return nil
			}

			dash := services.BuildDashboard(subs, services.DashboardOptions{
				View:   mode,
				Locale: st.locale(),
				AsOf:   st.app.Now(),
			})
			created := make(map[string]core.Subscription, len(subs))
			for _, s := range subs {
				created[s.ID] = s
			}

			rows := make([][]string, 0, len(dash.Cards))
			for _, c := range dash.Cards {
				status := c.DaysLabel
				if c.StatusLabel != "" {
					status = c.StatusLabel + ", " + c.DaysLabel
				}
				rows = append(rows, []string{
					c.Name,
					formatAmount(c.CurrencySymbol, c.DisplayCost),
					string(c.Cycle),
					string(c.Category),
					c.NextBillingDate.String(),
					styleStatus(c.Urgency, status),
					humanize.Time(created[c.ID].CreatedAt),
					c.ID,
				})
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, renderTable(table{
				Title:   fmt.Sprintf("Subscriptions (%s)", mode),
				Headers: []string{"Name", "Cost", "Cycle", "Category", "Next", "Status", "Added", "ID"},
				Rows:    rows,
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "monthly", "Cost view: monthly or yearly")
	return cmd
}

func styleStatus(u services.Urgency, s string) string {
	switch {
	case u.Overdue:
		return alertStyle.Render(s)
	case u.DueSoon:
		return warnStyle.Render(s)
	default:
		return okStyle.Render(s)
	}
}

func newAddCmd(st *rootState) *cobra.Command {
	var (
		preset   string
		name     string
		cost     string
		currency string
		cycle    string
		category string
		start    string
		color    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a subscription",
		Example: `  subtrackctl add -u alice --name Netflix --cost 15.49 --category Entertainment
  subtrackctl add -u alice --preset spotify --start 2024-03-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := st.requireUser()
			if err != nil {
				return err
			}

			in := core.NewSubscription{
				Currency:  core.USD,
				Cycle:     core.Monthly,
				Category:  core.Other,
				StartDate: st.today(),
			}
			if preset != "" {
				p, ok := findPreset(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q", preset)
				}
				in = p.Template(in.StartDate)
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = name
			}
			if flags.Changed("cost") {
				cents, err := core.ParseDecimalToCents(cost)
				if err != nil {
					return fmt.Errorf("cost: %w", err)
				}
				in.Cost = core.Money{Cents: cents}
			}
			if flags.Changed("currency") {
				in.Currency = core.CurrencyCode(strings.ToUpper(currency))
			}
			if flags.Changed("cycle") {
				in.Cycle = core.Cycle(strings.ToLower(cycle))
			}
			if flags.Changed("category") {
				in.Category = core.Category(category)
			}
			if flags.Changed("color") {
				in.Color = color
			}
			if flags.Changed("start") {
				d, err := core.ParseDate(start)
				if err != nil {
					return err
				}
				in.StartDate = d
			}

			id, err := st.app.Service.CreateSubscription(cmd.Context(), user, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", okStyle.Render("Added"), in.Name, id)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "Start from a known service (Netflix, Spotify, ...)")
	f.StringVar(&name, "name", "", "Subscription name")
	f.StringVar(&cost, "cost", "", "Cost per cycle, e.g. 9.99")
	f.StringVar(&currency, "currency", "USD", "ISO currency code")
	f.StringVar(&cycle, "cycle", "monthly", "Billing cycle: monthly or yearly")
	f.StringVar(&category, "category", "Other", "Category")
	f.StringVar(&start, "start", "", "First billing date, YYYY-MM-DD (default today)")
	f.StringVar(&color, "color", "", "Display color")
	return cmd
}

func findPreset(name string) (core.ServicePreset, bool) {
	for _, p := range core.Presets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return core.ServicePreset{}, false
}

func newDeleteCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := st.requireUser()
			if err != nil {
				return err
			}
			if err := st.app.Service.DeleteSubscription(cmd.Context(), user, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("Deleted"), args[0])
			return nil
		},
	}
}

func newSummaryCmd(st *rootState) *cobra.Command {
	var (
		view     string
		tradeOff string
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals per category and the spending vibe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := st.requireUser()
			if err != nil {
				return err
			}
			mode, err := core.ParseViewMode(view)
			if err != nil {
				return err
			}
			loc := st.locale()
			item, err := core.LookupTradeOff(loc, core.TradeOffID(tradeOff))
			if err != nil {
				return err
			}
			subs, err := st.app.Service.ListSubscriptions(cmd.Context(), user)
			if err != nil {
				return err
			}

			sum := services.Summarize(subs, mode)
			symbol := core.ReferenceCurrency.Symbol()
			rows := make([][]string, 0, len(sum.ByCategory)+1)
			for _, c := range sum.ByCategory {
				share := "0.0%"
				if sum.MonthlyTotal > 0 {
					share = fmt.Sprintf("%.1f%%", c.Amount/sum.MonthlyTotal*100)
				}
				rows = append(rows, []string{string(c.Category), formatAmount(symbol, c.Amount), share})
			}
			rows = append(rows, []string{"TOTAL", formatAmount(symbol, sum.Total), ""})

			ratio := sum.MonthlyTotal / (item.Cost * core.RateToReference(item.Currency))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTitle(fmt.Sprintf("SUMMARY  %s  %d subscriptions", mode, sum.Count)))
			fmt.Fprint(out, renderTable(table{
				Title:   "By category",
				Headers: []string{"Category", "Per month", "Share"},
				Rows:    rows,
			}))
			fmt.Fprintf(out, "\n  %s\n", headerStyle.Render(i18n.T(loc, i18n.VibeKey(sum.Vibe))))
			fmt.Fprintf(out, "  %s %s %s %s / month\n", i18n.T(loc, i18n.Equals), services.FormatRatio(ratio), item.Name, item.Icon)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "monthly", "Cost view: monthly or yearly")
	cmd.Flags().StringVar(&tradeOff, "tradeoff", string(core.TradeOffCoffee), "Reference purchase: coffee, meal or cinema")
	return cmd
}

func newAlertsCmd(st *rootState) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show due and overdue payments for every user",
		Long: `Without --send the scan is a dry run that prints what would be sent.
With --send the configured notifier delivers the alerts, once per user per day.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if send {
				if st.app.Notifier == nil {
					return fmt.Errorf("no notifier configured")
				}
				n, err := services.NewAlertProcessor(st.app.Store, st.app.Notifier).ProcessDueSubscriptions(ctx, st.app.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Notified %d user(s)\n", n)
				return nil
			}

			users, err := st.app.Store.ListUsers(ctx)
			if err != nil {
				return err
			}
			today := st.today()
			loc := st.locale()
			found := 0
			for _, u := range users {
				if st.user != "" && u.ID != st.user {
					continue
				}
				subs, err := st.app.Store.ListSubscriptions(ctx, u.ID)
				if err != nil {
					return err
				}
				alerts := services.CollectAlerts(subs, today)
				if len(alerts) == 0 {
					continue
				}
				found++
				fmt.Fprintln(out, notify.FormatAlerts(loc, u, today, alerts))
				fmt.Fprintln(out)
			}
			if found == 0 {
				fmt.Fprintln(out, "Nothing due.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "Deliver alerts through the configured notifier")
	return cmd
}
