package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/fetcher"
	"github.com/chid93/next-gen-prf/internal/geo"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download and inspect polygon datasets",
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a dataset archive and extract it",
	Long: `Downloads a zipped shapefile or GeoJSON over HTTP(S) or FTP, extracts it into
the destination directory and prints the path of the layer file. The default
URL is the Census TIGER/Line county boundary file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		url, _ := cmd.Flags().GetString("url")
		dest, _ := cmd.Flags().GetString("dest")
		if url == "" {
			url = cfg.Data.CountiesURL
		}
		if dest == "" {
			dest = cfg.Data.DestDir
		}

		path, err := fetcher.FetchDataset(ctx, fetcher.NewRouter(cfg.Data.UserAgent), url, dest)
		if err != nil {
			return err
		}
		zap.L().Info("dataset ready", zap.String("url", url), zap.String("path", path))
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var dataInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load the configured layers and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}
		ds, err := geo.Load(cmd.Context(), dataSources(cfg))
		if err != nil {
			return err
		}
		formatDataset(cmd.OutOrStdout(), ds)
		return nil
	},
}

func init() {
	dataFetchCmd.Flags().String("url", "", "dataset URL (default from config data.counties_url)")
	dataFetchCmd.Flags().String("dest", "", "destination directory (default from config data.dest_dir)")
	dataCmd.AddCommand(dataFetchCmd, dataInspectCmd)
	rootCmd.AddCommand(dataCmd)
}

// formatDataset writes one row per layer followed by the state count.
func formatDataset(out io.Writer, ds *geo.Dataset) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LAYER\tFEATURES\tLABEL\tINDEXED\tBOUNDS")
	_, _ = fmt.Fprintln(w, "-----\t--------\t-----\t-------\t------")

	for _, l := range []*geo.Layer{ds.Grids, ds.Counties} {
		b := l.Bound()
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%t\t%.4f,%.4f,%.4f,%.4f\n",
			l.Name,
			l.Len(),
			l.LabelProperty,
			l.Indexed(),
			b.MinLng, b.MinLat, b.MaxLng, b.MaxLat,
		)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\nstates: %d\n", len(ds.States))
}
