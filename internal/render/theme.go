package render

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed themes/*.toml
var embeddedThemes embed.FS

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "mocha"

// Theme holds the colors of the terminal preview.
type Theme struct {
	Name    string `toml:"name"`
	Fg      string `toml:"fg"`       // Primary foreground
	FgMuted string `toml:"fg_muted"` // Excluded days, empty cells
	Accent  string `toml:"accent"`   // Headers, borders
	Leave   string `toml:"leave"`    // Unavailability bars
	Job     string `toml:"job"`      // Job cards
	Warning string `toml:"warning"`  // Conflict counts
}

// LoadTheme loads a theme by name from embedded files.
// Falls back to the default theme if the name is unknown.
func LoadTheme(name string) (*Theme, error) {
	if name == "" {
		name = DefaultTheme
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("themes/" + name + ".toml")
	if err != nil {
		if name != DefaultTheme {
			return LoadTheme(DefaultTheme)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	return &t, nil
}

// AvailableThemes returns the embedded theme names.
func AvailableThemes() []string {
	return []string{"latte", "mocha"}
}

// IsAvailableTheme reports whether a theme name is available.
func IsAvailableTheme(name string) bool {
	return slices.Contains(AvailableThemes(), strings.ToLower(name))
}
