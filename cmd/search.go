package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchFlags searchInput

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search venues across providers and print the ranked list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := runSearch(ctx, env, searchFlags)
		if err != nil {
			return err
		}
		if res.Degraded {
			zap.L().Warn("search degraded",
				zap.Strings("failed", res.FailedProviders()),
				zap.Strings("warnings", res.Warnings),
			)
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	f := searchCmd.Flags()
	f.Float64Var(&searchFlags.Lat, "lat", 0, "origin latitude")
	f.Float64Var(&searchFlags.Lng, "lng", 0, "origin longitude")
	f.IntVar(&searchFlags.RadiusM, "radius", 1500, "search radius in meters")
	f.StringSliceVar(&searchFlags.Cuisines, "cuisine", nil, "cuisine filter (repeatable)")
	f.StringSliceVar(&searchFlags.Vibes, "vibe", nil, "vibe filter (repeatable)")
	f.StringSliceVar(&searchFlags.PriceTiers, "price", nil, "price tier filter, 1-4 (repeatable)")
	f.StringSliceVar(&searchFlags.Providers, "provider", nil, "restrict to providers (default all enabled)")
	f.StringVar(&searchFlags.UserID, "user", "", "user id whose preferences drive ranking")
	f.StringVar(&searchFlags.PartnerID, "partner", "", "partner user id for dual ranking")
	_ = searchCmd.MarkFlagRequired("lat")
	_ = searchCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(searchCmd)
}
