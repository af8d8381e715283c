package notify

import (
	"fmt"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
	"subtrack/internal/services"
)

// FormatAlerts renders one plain-text digest line per alert.
func FormatAlerts(loc core.Locale, user core.User, today core.Date, alerts []services.Alert) string {
	var b strings.Builder
	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	fmt.Fprintf(&b, "%s (%s)\n", name, today)
	for _, a := range alerts {
		s := a.Subscription
		var status, days string
		if a.Urgency.Overdue {
			status = i18n.T(loc, i18n.Overdue)
			days = fmt.Sprintf("%d %s", -a.Urgency.DaysRemaining, i18n.T(loc, i18n.DaysAgo))
		} else {
			status = i18n.T(loc, i18n.DueSoon)
			days = fmt.Sprintf("%d %s", a.Urgency.DaysRemaining, i18n.T(loc, i18n.DaysLeft))
		}
		fmt.Fprintf(&b, "• %s %s%s: %s, %s\n", s.Name, s.Currency.Symbol(), s.Cost, status, days)
	}
	return strings.TrimRight(b.String(), "\n")
}
