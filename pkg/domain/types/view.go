package types

import (
	"fmt"
	"strings"
)

// ViewID identifies one embedded sub-application
type ViewID string

const (
	ViewDashboard      ViewID = "dashboard"
	ViewAdministration ViewID = "administration"
	ViewPreparation    ViewID = "preparation"
)

// viewAliases maps the Spanish identifiers used by existing deep links
var viewAliases = map[string]ViewID{
	"administracion": ViewAdministration,
	"preparacion":    ViewPreparation,
}

// AllViews returns all views in tab order
func AllViews() []ViewID {
	return []ViewID{
		ViewDashboard,
		ViewAdministration,
		ViewPreparation,
	}
}

// IsValid checks if the view ID is valid
func (v ViewID) IsValid() bool {
	switch v {
	case ViewDashboard,
		ViewAdministration,
		ViewPreparation:
		return true
	default:
		return false
	}
}

// String returns the string representation of the view ID
func (v ViewID) String() string {
	return string(v)
}

// ParseViewID parses a view ID, accepting the legacy Spanish aliases
func ParseViewID(s string) (ViewID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := viewAliases[s]; ok {
		return alias, nil
	}
	id := ViewID(s)
	if !id.IsValid() {
		return "", fmt.Errorf("invalid view ID: %s", s)
	}
	return id, nil
}
