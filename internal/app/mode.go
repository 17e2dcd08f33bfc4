package app

import "strings"

const (
	FrontendTea     = "tea"
	FrontendClassic = "classic"
)

// normalizeFrontend returns "" for unknown names.
func normalizeFrontend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", FrontendTea, "bubbletea", "modern":
		return FrontendTea
	case FrontendClassic, "tview":
		return FrontendClassic
	default:
		return ""
	}
}
