package types

import "fmt"

// ThemeMode is the light/dark color scheme
type ThemeMode string

const (
	ThemeModeLight  ThemeMode = "light"
	ThemeModeDark   ThemeMode = "dark"
	ThemeModeSystem ThemeMode = "system"
)

// AllThemeModes returns all valid theme modes
func AllThemeModes() []ThemeMode {
	return []ThemeMode{ThemeModeLight, ThemeModeDark, ThemeModeSystem}
}

// IsValid checks if the theme mode is valid
func (m ThemeMode) IsValid() bool {
	switch m {
	case ThemeModeLight, ThemeModeDark, ThemeModeSystem:
		return true
	default:
		return false
	}
}

// ParseThemeMode parses a theme mode
func ParseThemeMode(s string) (ThemeMode, error) {
	m := ThemeMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid theme mode: %s", s)
	}
	return m, nil
}

// Accent is the accent color of the portal
type Accent string

const (
	AccentBlue   Accent = "blue"
	AccentGreen  Accent = "green"
	AccentViolet Accent = "violet"
	AccentRed    Accent = "red"
	AccentOrange Accent = "orange"
)

// AllAccents returns all valid accent colors
func AllAccents() []Accent {
	return []Accent{AccentBlue, AccentGreen, AccentViolet, AccentRed, AccentOrange}
}

// IsValid checks if the accent color is valid
func (a Accent) IsValid() bool {
	switch a {
	case AccentBlue, AccentGreen, AccentViolet, AccentRed, AccentOrange:
		return true
	default:
		return false
	}
}

// ParseAccent parses an accent color
func ParseAccent(s string) (Accent, error) {
	a := Accent(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid accent: %s", s)
	}
	return a, nil
}

// Appearance is the shape variant of controls
type Appearance string

const (
	AppearanceDefault Appearance = "default"
	AppearanceRounded Appearance = "rounded"
)

// AllAppearances returns all valid appearances
func AllAppearances() []Appearance {
	return []Appearance{AppearanceDefault, AppearanceRounded}
}

// IsValid checks if the appearance is valid
func (a Appearance) IsValid() bool {
	switch a {
	case AppearanceDefault, AppearanceRounded:
		return true
	default:
		return false
	}
}

// ParseAppearance parses an appearance
func ParseAppearance(s string) (Appearance, error) {
	a := Appearance(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid appearance: %s", s)
	}
	return a, nil
}
