package services

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/version"
)

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

func (m *Manager) desktopAlert(title, body string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(fmt.Sprintf("%s: %s", version.AppName, title), body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// checkSpendAlert reports month-over-month growth crossing the threshold
// upwards. The first value seen for an account raises the in-app alert only;
// desktop notifications need an observed crossing.
func (m *Manager) checkSpendAlert(accountID int, change float64) {
	if m.spendAlertPercent <= 0 {
		return
	}

	m.mu.Lock()
	prev, seen := m.lastChange[accountID]
	m.lastChange[accountID] = change
	m.mu.Unlock()

	crossed := change >= m.spendAlertPercent && (!seen || prev < m.spendAlertPercent)
	if !crossed {
		return
	}

	m.broadcast(SpendAlertEvent{AccountID: accountID, ChangePercent: change})
	if seen {
		m.desktopAlert(
			fmt.Sprintf("Spend up %.0f%%", change),
			fmt.Sprintf("Account #%d is %.1f%% above last month", accountID, change),
		)
	}
}
