// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#667EEA")
	// SuccessColor indicates successful operations and strong deals.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings and middling deals.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors and overpriced deals.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	ratingGood = lipgloss.NewStyle().Bold(true).Foreground(SuccessColor)
	ratingFair = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)
	ratingPoor = lipgloss.NewStyle().Bold(true).Foreground(ErrorColor)
)

// FormatRating renders a 1-10 deal rating with a color cue: 8+ good,
// 5-7 fair, below 5 poor.
func FormatRating(rating int) string {
	text := fmt.Sprintf("%d/10", rating)
	switch {
	case rating >= 8:
		return ratingGood.Render(text)
	case rating >= 5:
		return ratingFair.Render(text)
	default:
		return ratingPoor.Render(text)
	}
}
