// Package statustable renders the ranked worker roster for terminal observers.
package statustable

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dreamware/solvernet/internal/cluster"
)

// Headers are the column titles, in order.
var Headers = []string{"ID", "Memory available (MB)", "CPU load"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Rows formats ranked workers as table rows, numbers with three decimals.
func Rows(ranked []cluster.RankedWorker) [][]string {
	rows := make([][]string, len(ranked))
	for i, w := range ranked {
		rows[i] = []string{
			w.ID,
			strconv.FormatFloat(w.MemoryAvailableMB, 'f', 3, 64),
			strconv.FormatFloat(w.CPULoad, 'f', 3, 64),
		}
	}
	return rows
}

// Render draws ranked (best first) as a bordered table. The first row, the
// worker the next request would go to, is highlighted.
func Render(ranked []cluster.RankedWorker) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Headers...).
		Rows(Rows(ranked)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == 0:
				return bestStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// Summary is the one-line caption printed under the table.
func Summary(ranked []cluster.RankedWorker) string {
	if len(ranked) == 0 {
		return "no healthy workers"
	}
	return fmt.Sprintf("%d healthy, next request goes to %s", len(ranked), ranked[0].ID)
}
