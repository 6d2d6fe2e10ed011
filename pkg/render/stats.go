package render

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// StatsTable formats a Frame's per-level timing into the aligned table
// cmd/render.go's displayFrameStats renders for the GPU tracer, adapted
// from one row per device to one row per pyramid level.
func StatsTable(s Stats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Level", "Pixels rendered", "Time"})

	var totalMs int64
	for level, px := range s.LevelPixels {
		ms := s.LevelMillis[level]
		totalMs += ms
		table.Append([]string{
			fmt.Sprintf("%d", level),
			fmt.Sprintf("%d", px),
			fmt.Sprintf("%d ms", ms),
		})
	}
	table.SetFooter([]string{"", "TOTAL", fmt.Sprintf("%d ms", totalMs)})
	table.Render()
	return buf.String()
}
