package model

import (
	"html"
	"strings"
)

// Source identifies the marketplace a listing came from.
type Source string

// Known marketplace sources.
const (
	SourceVinted    Source = "vinted"
	SourceLeboncoin Source = "leboncoin"
)

// Listing represents a single marketplace advertisement in canonical form.
// Price is a pointer so "unknown" can be distinguished from "free".
type Listing struct {
	Price       *float64
	Source      Source
	Title       string
	Description string
	URL         string
	ImageURL    string
	SellerName  string
	CreatedAt   string
}

// TitleKey returns the case-folded, trimmed title used for deduplication.
func (l *Listing) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(l.Title))
}

// CleanText returns the listing's title and description joined for analysis,
// with HTML entities decoded.
func (l *Listing) CleanText() string {
	combined := strings.TrimSpace(l.Title + " " + l.Description)
	return html.UnescapeString(combined)
}
