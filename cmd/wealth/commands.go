package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/series"
	"github.com/mtlprog/wealth/internal/store"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and store the session tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"WEALTH_PASSWORD"}, Required: true},
		},
		Action: withDeps(func(c *cli.Context, d *deps) error {
			form := domain.LoginUser{Email: c.String("email"), Password: c.String("password")}
			if err := d.session.Login(c.Context, form); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Logged in as %s\n", form.Email)
			return nil
		}),
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create a user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"WEALTH_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "password-confirm", Required: true},
		},
		Action: withDeps(func(c *cli.Context, d *deps) error {
			user, err := d.session.Register(c.Context, domain.CreateUser{
				Email:     c.String("email"),
				Password:  c.String("password"),
				Password2: c.String("password-confirm"),
				FirstName: c.String("first-name"),
				LastName:  c.String("last-name"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Registered %s, you can now log in\n", user.Email)
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "discard the stored session",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			return d.session.Logout()
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the logged-in user",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			user, err := d.session.CurrentUser(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
			return nil
		}),
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "fetch every entity with its balances",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			if err := d.portfolio.Sync(c.Context); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d accounts, %d positions, %d assets\n",
				d.registry.Accounts.Len(), d.registry.Positions.Len(), d.registry.Assets.Len())
			return nil
		}),
	}
}

func accountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "list linked bank accounts",
		Flags: pageFlags(),
		Action: withDeps(func(c *cli.Context, d *deps) error {
			accounts, err := d.portfolio.AccountsWithBalances(c.Context)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBANK\tACTIVE\tBALANCE")
			for _, a := range paged(accounts, c.Int("page"), c.Int("limit")) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", a.AccountID, a.DisplayName(), a.Bank, a.IsActive,
					domain.FormatCurrency(series.Latest(a.Balances), domain.DefaultCurrency))
			}
			return tw.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "edit",
				Usage:     "rename, alias or (de)activate an account",
				ArgsUsage: "ACCOUNT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "alias", Usage: "display name of the bank"},
					&cli.BoolFlag{Name: "active"},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					a, err := d.portfolio.EditAccount(c.Context, c.Args().First(), accountEdit(c))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Updated account %s (%s, active %t)\n", a.AccountID, a.DisplayName(), a.IsActive)
					return nil
				}),
			},
		},
	}
}

func positionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "positions",
		Usage: "list stock positions",
		Flags: pageFlags(),
		Action: withDeps(func(c *cli.Context, d *deps) error {
			positions, err := d.portfolio.PositionsWithBalances(c.Context)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTICKER\tAMOUNT\tSINCE\tVALUE")
			for _, p := range paged(positions, c.Int("page"), c.Int("limit")) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.PositionID, p.Ticker, p.Amount, p.StartDate,
					domain.FormatCurrency(p.CurrentValueInEuro, domain.DefaultCurrency))
			}
			return tw.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "open a position",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ticker", Required: true},
					&cli.StringFlag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "start-date", Value: domain.FormatDay(domain.Today())},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					amount, err := domain.ParseAmount("amount", c.String("amount"))
					if err != nil {
						return err
					}
					p, err := d.portfolio.CreatePosition(c.Context, domain.NewStockPosition{
						Ticker:    c.String("ticker"),
						Amount:    amount,
						StartDate: c.String("start-date"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Created position %s\n", p.PositionID)
					return nil
				}),
			},
			{
				Name:      "edit",
				Usage:     "change the amount or start date of a position",
				ArgsUsage: "POSITION_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "amount"},
					&cli.StringFlag{Name: "start-date"},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					edit, err := positionEdit(c)
					if err != nil {
						return err
					}
					p, err := d.portfolio.EditPosition(c.Context, c.Args().First(), edit)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Updated position %s: %s %s since %s\n", p.PositionID, p.Amount, p.Ticker, p.StartDate)
					return nil
				}),
			},
		},
	}
}

func assetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "list custom assets",
		Flags: pageFlags(),
		Action: withDeps(func(c *cli.Context, d *deps) error {
			assets, err := d.portfolio.AssetsWithBalances(c.Context)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDESCRIPTION\tCURRENCY\tVALUE")
			for _, a := range paged(assets, c.Int("page"), c.Int("limit")) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.AssetID, a.Description, a.Currency,
					domain.FormatCurrency(a.CurrentValueInEuro, domain.DefaultCurrency))
			}
			return tw.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a custom asset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Required: true},
					&cli.StringFlag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "currency", Value: domain.DefaultCurrency},
					&cli.StringFlag{Name: "date", Value: domain.FormatDay(domain.Today())},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					amount, err := domain.ParseAmount("amount", c.String("amount"))
					if err != nil {
						return err
					}
					a, err := d.portfolio.CreateAsset(c.Context, domain.NewCustomAsset{
						Description: c.String("description"),
						Amount:      amount,
						Currency:    c.String("currency"),
						AssetDate:   c.String("date"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Created asset %s\n", a.AssetID)
					return nil
				}),
			},
			{
				Name:      "edit",
				Usage:     "change an asset; --event replaces the full list of valuation events",
				ArgsUsage: "ASSET_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "currency"},
					&cli.StringSliceFlag{Name: "event", Usage: "valuation event as DATE=AMOUNT, repeatable"},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					edit, err := assetEdit(c)
					if err != nil {
						return err
					}
					id := c.Args().First()
					var a domain.CustomAsset
					if len(edit.Events) > 0 {
						a, err = d.portfolio.SaveAsset(c.Context, id, edit)
					} else {
						a, err = d.portfolio.EditAsset(c.Context, id, edit)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Updated asset %s (%s, %d events)\n", a.AssetID, a.Description, len(a.Events))
					return nil
				}),
			},
			{
				Name:      "value",
				Usage:     "record or delete the value of an asset on a day",
				ArgsUsage: "ASSET_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "amount"},
					&cli.StringFlag{Name: "date", Value: domain.FormatDay(domain.Today())},
					&cli.StringFlag{Name: "delete", Usage: "remove the event of this date instead"},
				},
				Action: withDeps(func(c *cli.Context, d *deps) error {
					if date := c.String("delete"); date != "" {
						_, err := d.portfolio.DeleteAssetEvent(c.Context, c.Args().First(), date)
						return err
					}
					amount, err := domain.ParseAmount("amount", c.String("amount"))
					if err != nil {
						return err
					}
					_, err = d.portfolio.PutAssetEvent(c.Context, c.Args().First(),
						domain.AssetEvent{Date: c.String("date"), Amount: amount})
					return err
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a custom asset",
				ArgsUsage: "ASSET_ID",
				Action: withDeps(func(c *cli.Context, d *deps) error {
					return d.portfolio.DeleteAsset(c.Context, c.Args().First())
				}),
			},
		},
	}
}

func overviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "overview",
		Usage: "show the total balance and its composition",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			if err := d.portfolio.Sync(c.Context); err != nil {
				return err
			}
			ov := d.board.Overview()
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tAMOUNT\tSHARE")
			for _, s := range ov.Composition {
				fmt.Fprintf(tw, "%s\t%s\t%s%%\n", s.Kind.Label(),
					domain.FormatCurrency(s.AmountInEuro, domain.DefaultCurrency), s.Share.StringFixed(2))
			}
			fmt.Fprintf(tw, "Total\t%s\t\n", ov.TotalLabel)
			return tw.Flush()
		}),
	}
}

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "print the daily series of one kind",
		ArgsUsage: "banks|stocks|assets",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:   "months",
				Value:  12,
				Usage:  fmt.Sprintf("trailing window, one of %v (-1 for all time)", series.MonthOptions),
				Action: func(_ *cli.Context, months int) error { return checkMonths(months) },
			},
			&cli.StringSliceFlag{Name: "id", Usage: "restrict to these entity ids"},
		},
		Action: withDeps(func(c *cli.Context, d *deps) error {
			kind, err := store.ParseKind(c.Args().First())
			if err != nil {
				return err
			}
			if err := d.portfolio.Sync(c.Context); err != nil {
				return err
			}
			g := d.board.Graph(kind, c.Int("months"), c.StringSlice("id")...)
			fmt.Fprintf(c.App.Writer, "%s, %s\n", kind.Label(), g.Window)
			for _, p := range g.Points {
				fmt.Fprintf(c.App.Writer, "%s  %s\n", p.Date, domain.FormatCurrency(p.AmountInEuro, domain.DefaultCurrency))
			}
			return nil
		}),
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "look up ticker symbols",
		ArgsUsage: "QUERY",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			items, err := d.portfolio.SearchTicker(c.Context, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TICKER\tNAME\tTYPE\tREGION")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Ticker, it.Name, it.Type, it.Region)
			}
			return tw.Flush()
		}),
	}
}

func linkBankCommand() *cli.Command {
	return &cli.Command{
		Name:  "link-bank",
		Usage: "print the URL that links a bank, or renews an existing link",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "market", Value: domain.DefaultMarket},
			&cli.BoolFlag{Name: "test", Usage: "use the provider sandbox"},
			&cli.StringFlag{Name: "refresh", Usage: "credentials id of a link to renew"},
		},
		Action: withDeps(func(c *cli.Context, d *deps) error {
			var (
				link string
				err  error
			)
			if id := c.String("refresh"); id != "" {
				link, err = d.portfolio.RefreshBankLink(c.Context, id)
			} else {
				link, err = d.portfolio.BankLinkURL(c.Context, domain.BankLinkParams{
					Market: c.String("market"),
					Test:   c.Bool("test"),
				})
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, link)
			fmt.Fprintln(os.Stderr, "Open the URL above; the provider redirects back to the serve command's /callback.")
			return nil
		}),
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Usage: "zero-based page of rows"},
		&cli.IntFlag{Name: "limit", Usage: "rows per page, 0 for all"},
	}
}

// paged returns the requested page of items, or all of them without a limit.
func paged[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	return series.Paginate(items, page, limit)
}

func checkMonths(months int) error {
	if !series.ValidMonths(months) {
		return domain.ValidationErrors{"months": fmt.Sprintf("must be one of %v", series.MonthOptions)}
	}
	return nil
}

// accountEdit collects only the flags the user set, so unset fields are
// left untouched by the backend.
func accountEdit(c *cli.Context) domain.EditAccount {
	var edit domain.EditAccount
	if c.IsSet("name") {
		edit.Name = lo.ToPtr(c.String("name"))
	}
	if c.IsSet("alias") {
		edit.BankAlias = lo.ToPtr(c.String("alias"))
	}
	if c.IsSet("active") {
		edit.IsActive = lo.ToPtr(c.Bool("active"))
	}
	return edit
}

func positionEdit(c *cli.Context) (domain.EditStockPosition, error) {
	var edit domain.EditStockPosition
	if c.IsSet("amount") {
		amount, err := domain.ParseAmount("amount", c.String("amount"))
		if err != nil {
			return edit, err
		}
		edit.Amount = &amount
	}
	if c.IsSet("start-date") {
		edit.StartDate = lo.ToPtr(c.String("start-date"))
	}
	return edit, nil
}

func assetEdit(c *cli.Context) (domain.EditCustomAsset, error) {
	var edit domain.EditCustomAsset
	if c.IsSet("description") {
		edit.Description = lo.ToPtr(c.String("description"))
	}
	if c.IsSet("currency") {
		edit.Currency = lo.ToPtr(c.String("currency"))
	}
	events, err := parseEvents(c.StringSlice("event"))
	if err != nil {
		return edit, err
	}
	edit.Events = events
	return edit, nil
}

// parseEvents reads DATE=AMOUNT pairs.
func parseEvents(raw []string) ([]domain.AssetEvent, error) {
	events := make([]domain.AssetEvent, 0, len(raw))
	for _, r := range raw {
		date, amount, ok := strings.Cut(r, "=")
		date = strings.TrimSpace(date)
		if !ok || date == "" {
			return nil, domain.ValidationErrors{"event": fmt.Sprintf("%q is not DATE=AMOUNT", r)}
		}
		a, err := domain.ParseAmount("event", amount)
		if err != nil {
			return nil, err
		}
		events = append(events, domain.AssetEvent{Date: date, Amount: a})
	}
	return events, nil
}
