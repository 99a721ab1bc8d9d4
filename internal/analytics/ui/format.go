package ui

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDay renders a calendar day in the layout used by query strings.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(tickets.DateLayout)
}
