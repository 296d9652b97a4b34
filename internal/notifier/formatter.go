package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"FareSentinel/internal/model"
)

// FormatMoney renders an amount with thousands separators and 2 decimals.
func FormatMoney(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// FormatAlertSubject formats the subject line for a price alert.
func FormatAlertSubject(a model.Alert) string {
	return fmt.Sprintf("Opportunity for travel to %s!", a.Destination)
}

// FormatAlertBody formats the plain-text body for a price alert.
func FormatAlertBody(a model.Alert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("PRICE ALERT! Ticket to %s found for %s %s on %s.\n",
		a.Destination, a.Currency, FormatMoney(a.Price), a.Date))
	b.WriteString("\nThe best offer for this route is at or below your target price.\n")
	return b.String()
}
