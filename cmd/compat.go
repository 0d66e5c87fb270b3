package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var compatCmd = &cobra.Command{
	Use:   "compat <user-a> <user-b>",
	Short: "Score preference compatibility between two stored users",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "compat")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Store.GetProfile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		b, err := env.Store.GetProfile(ctx, args[1])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[1], err)
		}

		score, err := env.Scorer.Score(ctx, *a, *b)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(score, "", "  ")
		if err != nil {
			return fmt.Errorf("encode score: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	rootCmd.AddCommand(compatCmd)
}
