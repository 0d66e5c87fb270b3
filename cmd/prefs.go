package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage stored preference profiles",
}

var prefsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import preference profiles from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "prefs")
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close() //nolint:errcheck

		n, err := store.ImportYAML(ctx, env.Store, f)
		if err != nil {
			return err
		}
		zap.L().Info("profiles imported", zap.String("file", args[0]), zap.Int("count", n))
		return nil
	},
}

var prefsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored preference profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "prefs")
		if err != nil {
			return err
		}
		defer env.Close()

		profiles, err := env.Store.ListProfiles(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tCUISINES\tVIBES\tPRICE\tDIETARY") //nolint:errcheck
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%v\n", p.UserID, p.Cuisines, p.Vibes, p.PriceTiers, p.DietaryRestrictions) //nolint:errcheck
		}
		return w.Flush()
	},
}

var prefsDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a stored preference profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "prefs")
		if err != nil {
			return err
		}
		defer env.Close()

		return env.Store.DeleteProfile(ctx, args[0])
	},
}

func init() {
	prefsCmd.AddCommand(prefsImportCmd, prefsListCmd, prefsDeleteCmd)
	rootCmd.AddCommand(prefsCmd)
}
