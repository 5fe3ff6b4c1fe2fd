package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mdouchement/lostfound/internal/client"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	settings string
	list     client.ListOptions
	force    bool
)

func main() {
	c := &cobra.Command{
		Use:     "lfc",
		Short:   "Lost and found client",
		Version: fmt.Sprintf("%s - build %.7s @ %s", version, revision, date),
		Args:    cobra.NoArgs,
	}
	c.PersistentFlags().StringVarP(&settings, "config", "c", "", "settings file (default "+client.DefaultSettingsFile+")")

	listCmd.Flags().StringVarP(&list.View, "view", "v", client.ViewActive, "active, recovered, mine or latest")
	listCmd.Flags().StringVarP(&list.Search, "search", "s", "", "search in title, description and location")
	listCmd.Flags().StringVarP(&list.PostType, "type", "t", "all", "lost, found or all")
	listCmd.Flags().StringVar(&list.Category, "category", "all", "category")
	listCmd.Flags().StringVar(&list.Location, "location", "all", "location")
	listCmd.Flags().StringVarP(&list.Sort, "sort", "o", "newest", "newest, oldest, title or popular")
	listCmd.Flags().IntVarP(&list.Page, "page", "p", 1, "page number")
	deleteCmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	c.AddCommand(loginCmd)
	c.AddCommand(registerCmd)
	c.AddCommand(logoutCmd)
	c.AddCommand(listCmd)
	c.AddCommand(showCmd)
	c.AddCommand(reportCmd)
	c.AddCommand(editCmd)
	c.AddCommand(deleteCmd)
	c.AddCommand(recoverCmd)
	c.AddCommand(recoveriesCmd)
	c.AddCommand(confirmCmd)
	c.AddCommand(highlightsCmd)
	c.AddCommand(browseCmd)

	if err := c.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// run opens the client stack around the given command.
func run(restore bool, command func(app *client.App) error) error {
	app, err := client.Load(context.Background(), settings, restore)
	if err != nil {
		return err
	}

	err = command(app)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}

var (
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in to the lost and found",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(false, client.Login)
		},
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(false, client.Register)
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, client.Logout)
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the items",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.List(app, list)
			})
		},
	}

	showCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.Show(app, args[0])
			})
		},
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Report a lost or found item",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, client.Report)
		},
	}

	editCmd = &cobra.Command{
		Use:   "edit ID",
		Short: "Edit one of your items",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.Edit(app, args[0])
			})
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your items",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.Delete(app, args[0], force)
			})
		},
	}

	recoverCmd = &cobra.Command{
		Use:   "recover ID",
		Short: "Declare the recovery of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.Recover(app, args[0])
			})
		},
	}

	recoveriesCmd = &cobra.Command{
		Use:   "recoveries",
		Short: "List the recoveries involving you",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, client.Recoveries)
		},
	}

	confirmCmd = &cobra.Command{
		Use:   "confirm RECOVERY_ID",
		Short: "Mark a recovery of your item as fully recovered",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, func(app *client.App) error {
				return client.Confirm(app, args[0])
			})
		},
	}

	highlightsCmd = &cobra.Command{
		Use:   "highlights",
		Short: "Show the highlights",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(false, client.Highlights)
		},
	}

	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Text-based lost and found browser",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(true, client.Browse)
		},
	}
)
