package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/mapview"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve",
	Short:   "Resolve a coordinate to grid, county and state",
	Example: `  prf resolve --lat 39.0997 --lng -94.5786`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		c := geo.Coordinate{Lat: lat, Lng: lng}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		resolver, err := loadResolver(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		res := resolver.Resolve(c)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(struct {
			geo.Coordinate
			geo.Resolution
			Popup string `json:"popup"`
		}{c, res, mapview.PopupText(c, res)}), "resolve: write output")
	},
}

func init() {
	resolveCmd.Flags().Float64("lat", 0, "latitude in decimal degrees")
	resolveCmd.Flags().Float64("lng", 0, "longitude in decimal degrees")
	_ = resolveCmd.MarkFlagRequired("lat")
	_ = resolveCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(resolveCmd)
}
