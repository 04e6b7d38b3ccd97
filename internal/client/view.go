package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harborline/stockgate/internal/domain"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	levelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// RenderInventory renders the inventory section for the latest Action
// Result. A nil or failed result renders nothing at all — the view falls
// back to the pre-trigger empty state rather than showing partial data. An
// empty item list still renders the section header.
func RenderInventory(res *domain.ActionResult) string {
	if !res.OK() {
		return ""
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Inventory Items"))
	b.WriteString("\n")

	for _, edge := range res.Inventory.InventoryItems.Edges {
		b.WriteString(rowStyle.Render(renderItem(edge.Node)))
		b.WriteString("\n")
	}

	return b.String()
}

func renderItem(item domain.InventoryItem) string {
	tracked := "No"
	if item.Tracked {
		tracked = "Yes"
	}

	row := fmt.Sprintf("ID: %s, SKU: %s, Tracked: %s", item.ID, item.SKU, tracked)

	levels := make([]string, 0, len(item.InventoryLevels.Edges))
	for _, le := range item.InventoryLevels.Edges {
		for _, q := range le.Node.Quantities {
			levels = append(levels, levelStyle.Render(fmt.Sprintf("%s: %d", q.Name, q.Quantity)))
		}
	}

	// An item with zero levels keeps its row with an empty levels region.
	if len(levels) == 0 {
		return row
	}

	return row + ", " + strings.Join(levels, " ")
}
