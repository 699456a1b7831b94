package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
	"github.com/eshaffer321/coolingoff/internal/domain/similarity"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, command string) {
	fmt.Fprintf(w, "coolingoff: %s\n", command)
}

// PrintMatches prints ranked blacklist matches for a category
func PrintMatches(w io.Writer, category string, result similarity.Result, lang string) {
	fmt.Fprintf(w, "Category: %s\n", category)
	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "No similar blacklisted categories.")
		return
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, m := range result.Matches {
		fmt.Fprintf(w, "%3d  %-24s %-14s %s\n", m.SimilarityScore, m.BlacklistedCategory, m.Tier, m.Reason.Text(lang))
	}
}

// PrintDecision prints a resolved cooling period
func PrintDecision(w io.Writer, price float64, d cooling.Decision) {
	fmt.Fprintf(w, "Price: %.2f | Cooling: %d days | Until: %s\n",
		price, d.CoolingDays, d.CoolingUntil.Format(time.DateTime))
}

// PrintSweepReport prints the sweep result summary
func PrintSweepReport(w io.Writer, report *sweep.Report) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Run=%d Due=%d Sent=%d Skipped=%d Errors=%d\n",
		report.RunID,
		report.PurchasesDue,
		report.NotificationsSent,
		report.Skipped,
		report.Errors)

	if len(report.Notifications) > 0 {
		fmt.Fprintln(w, "\nNotifications:")
		for _, n := range report.Notifications {
			fmt.Fprintf(w, "  - %s: %s\n", n.Username, n.Message())
		}
	}
}
