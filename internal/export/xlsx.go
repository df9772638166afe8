// Package export writes a session's marker list as a spreadsheet.
package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/chid93/next-gen-prf/internal/model"
)

// SheetName is the worksheet holding the marker rows.
const SheetName = "Markers"

// Header is the first row of the marker sheet.
var Header = []string{"#", "Handle", "Latitude", "Longitude", "Grid ID", "State", "County", "Source", "Placed At"}

// WriteMarkersXLSX writes markers in list order, one row each. Unresolved
// regions are left blank.
func WriteMarkersXLSX(w io.Writer, markers []model.Marker) error {
	f, err := BuildMarkersXLSX(markers)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// BuildMarkersXLSX builds the workbook in memory.
func BuildMarkersXLSX(markers []model.Marker) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for i, m := range markers {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(m.Handle)
		row.AddCell().SetFloat(m.Lat)
		row.AddCell().SetFloat(m.Lng)
		row.AddCell().SetString(deref(m.GridID))
		row.AddCell().SetString(deref(m.State))
		row.AddCell().SetString(deref(m.County))
		row.AddCell().SetString(m.Source)
		row.AddCell().SetString(m.CreatedAt.UTC().Format(time.RFC3339))
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
