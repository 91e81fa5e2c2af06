package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

func newViewsCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved views",
	}

	cmd.AddCommand(newViewsListCmd(v, flags))
	cmd.AddCommand(newViewsAddCmd(v, flags))
	cmd.AddCommand(newViewsRmCmd(v, flags))
	cmd.AddCommand(newViewsRecentCmd(v, flags))

	return cmd
}

func newViewsListCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views (of --project, or all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(v, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			printViews(cmd.OutOrStdout(), e.views.GetAll(flags.project))
			return nil
		},
	}
}

func newViewsAddCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add NAME ADDRESS",
		Short: "Save a view address under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.project == "" {
				return errors.New("--project is required")
			}
			e, err := openEnv(v, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			saved, err := e.views.Add(args[0], description, flags.project, args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved view %q (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	return cmd
}

func newViewsRmCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.project == "" {
				return errors.New("--project is required")
			}
			e, err := openEnv(v, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			saved, ok := e.views.FindByName(flags.project, args[0])
			if !ok {
				return fmt.Errorf("no saved view %q for project %q", args[0], flags.project)
			}
			if err := e.views.Delete(saved.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted view %q\n", saved.Name)
			return nil
		},
	}
}

func newViewsRecentCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the addresses the table was recently left at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.project == "" {
				return errors.New("--project is required")
			}
			e, err := openEnv(v, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.prefs.RecentAddresses(flags.project, limit)
			if err != nil {
				return fmt.Errorf("failed to read address history: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "OPENED\tADDRESS")
			for _, entry := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", entry.OpenedAt.Local().Format("2006-01-02 15:04"), displayAddress(entry.Address))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries")
	return cmd
}

func printViews(out io.Writer, views []models.SavedView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPROJECT\tUSED\tADDRESS")
	for _, view := range views {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", view.Name, view.Scope, view.UsageCount, displayAddress(view.Address))
	}
	_ = w.Flush()
}

func displayAddress(address string) string {
	if address == "" {
		return "(default)"
	}
	return address
}
