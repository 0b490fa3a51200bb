// Package models defines data structures and domain types.
package models

import (
	"strconv"
	"time"
)

// Placeholder labels used wherever the backend omits a string.
const (
	LabelUnknown = "Unknown"
	LabelNA      = "N/A"
)

// Account is a linked cloud-provider account. It is created by the backend
// when an account is connected and is read-only on the client.
type Account struct {
	CreatedAt    time.Time  `json:"created_at"`
	LastSynced   *time.Time `json:"last_synced,omitempty"`
	AWSAccountID string     `json:"aws_account_id"`
	RoleARN      string     `json:"role_arn"`
	ExternalID   string     `json:"external_id,omitempty"`
	ID           int        `json:"id"`
	IsActive     bool       `json:"is_active"`
}

// DisplayName returns the provider account number, falling back to the
// internal id and finally to a placeholder.
func (a *Account) DisplayName() string {
	if a.AWSAccountID != "" && a.AWSAccountID != LabelUnknown {
		return a.AWSAccountID
	}
	if a.ID > 0 {
		return "account #" + strconv.Itoa(a.ID)
	}
	return LabelUnknown
}

// NeverSynced reports whether the backend has no sync on record.
func (a *Account) NeverSynced() bool {
	return a.LastSynced == nil || a.LastSynced.IsZero()
}

// SelectAccount picks the account to display: the one matching preferredID
// if present, otherwise the first active account, otherwise the first one.
func SelectAccount(accounts []Account, preferredID int) (Account, bool) {
	if len(accounts) == 0 {
		return Account{}, false
	}
	if preferredID > 0 {
		for _, a := range accounts {
			if a.ID == preferredID {
				return a, true
			}
		}
	}
	for _, a := range accounts {
		if a.IsActive {
			return a, true
		}
	}
	return accounts[0], true
}

// AccountSetup carries what a user needs to create the cross-account IAM role.
// ExternalID is empty when only the platform info was requested.
type AccountSetup struct {
	ExternalID        string `json:"external_id,omitempty"`
	PlatformAccountID string `json:"platform_account_id"`
	RoleName          string `json:"role_name"`
	PolicyJSON        string `json:"policy_json,omitempty"`
}

// SyncResult is the backend's answer to a sync trigger. The backend computes
// analytics asynchronously, so a successful result does not mean fresh data yet.
type SyncResult struct {
	LastSync      *time.Time `json:"last_sync,omitempty"`
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	RecordsSynced int        `json:"daily_records_synced"`
	HasRecentData bool       `json:"has_recent_data"`
}

// ActionResult is the acknowledgement of a mutating request such as
// clearing the resource cache or connecting an account.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the backend accepted the action.
func (r ActionResult) OK() bool {
	return r.Status == "success" || r.Status == "ok"
}

// SyncRun is a locally recorded sync attempt.
type SyncRun struct {
	At            time.Time `json:"at"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	ID            int64     `json:"id"`
	AccountID     int       `json:"account_id"`
	RecordsSynced int       `json:"records_synced"`
}
