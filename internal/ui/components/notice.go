package components

import (
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// SliceNotice renders the freshness line under a section title: loading,
// the last error with a retry hint, or when the data was fetched. Stored
// snapshots are marked as such until the network answers.
func SliceNotice(loading bool, errMsg string, updated time.Time, fromStore bool) string {
	switch {
	case errMsg != "":
		return styles.ErrorTextStyle.Render("Failed to load: "+errMsg) +
			styles.HelpStyle.Render("  (r to retry)")
	case loading && updated.IsZero():
		return styles.InfoTextStyle.Render("Loading...")
	case loading:
		return styles.HelpStyle.Render("Updated " + FormatAgo(updated) + ", refreshing...")
	case updated.IsZero():
		return ""
	case fromStore:
		return styles.WarningTextStyle.Render("Stored snapshot from " + FormatAgo(updated))
	default:
		return styles.HelpStyle.Render("Updated " + FormatAgo(updated))
	}
}
