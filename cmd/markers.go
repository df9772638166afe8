package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chid93/next-gen-prf/internal/export"
	"github.com/chid93/next-gen-prf/internal/model"
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Work with stored session markers",
}

var markersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print a session's markers in placement order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		markers, err := storedSessionMarkers(cmd)
		if err != nil {
			return err
		}
		formatMarkers(cmd.OutOrStdout(), markers)
		return nil
	},
}

var markersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's markers to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		markers, err := storedSessionMarkers(cmd)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "markers: create %s", out)
		}
		if err := export.WriteMarkersXLSX(f, markers); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "markers: close %s", out)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d markers to %s\n", len(markers), out)
		return nil
	},
}

func storedSessionMarkers(cmd *cobra.Command) ([]model.Marker, error) {
	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		return nil, eris.New("markers: --session is required")
	}
	if err := cfg.Validate("export"); err != nil {
		return nil, err
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	return st.ListMarkers(cmd.Context(), sessionID)
}

// formatMarkers writes the sidebar view of a marker list.
func formatMarkers(out io.Writer, markers []model.Marker) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tLAT\tLNG\tGRID\tSTATE\tCOUNTY\tSOURCE")
	_, _ = fmt.Fprintln(w, "-\t---\t---\t----\t-----\t------\t------")
	for i, m := range markers {
		_, _ = fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%s\t%s\t%s\t%s\n",
			i+1, m.Lat, m.Lng, orDash(m.GridID), orDash(m.State), orDash(m.County), m.Source)
	}
	_ = w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func init() {
	for _, c := range []*cobra.Command{markersListCmd, markersExportCmd} {
		c.Flags().String("session", "", "session id")
	}
	markersExportCmd.Flags().String("out", "markers.xlsx", "output workbook path")
	markersCmd.AddCommand(markersListCmd, markersExportCmd)
	rootCmd.AddCommand(markersCmd)
}
