package mapview

import (
	"strconv"
	"strings"

	"github.com/chid93/next-gen-prf/internal/geo"
)

// PopupText renders marker popup HTML. Region lines are present only for
// resolved regions.
func PopupText(c geo.Coordinate, res geo.Resolution) string {
	var b strings.Builder
	b.WriteString("Marker at ")
	b.WriteString(strconv.FormatFloat(c.Lat, 'f', 3, 64))
	b.WriteString(", ")
	b.WriteString(strconv.FormatFloat(c.Lng, 'f', 3, 64))
	if res.GridID != nil {
		b.WriteString("<br>Grid ID: ")
		b.WriteString(*res.GridID)
	}
	if res.State != nil {
		b.WriteString("<br>State: ")
		b.WriteString(*res.State)
	}
	if res.County != nil {
		b.WriteString("<br>County: ")
		b.WriteString(*res.County)
	}
	return b.String()
}
