// Package style holds the colors and icons shared by the logger and the
// progress renderer.
package style

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	Ember  = lipgloss.Color("#E4572E")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Retry   = "↻"
)
