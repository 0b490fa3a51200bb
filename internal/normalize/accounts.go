package normalize

import (
	"encoding/json"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Accounts builds the account list. Both a bare array and a paginated
// {"results": [...]} envelope are accepted.
func Accounts(body []byte) ([]models.Account, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		items = List(Object(v)["results"])
	}

	accounts := make([]models.Account, 0, len(items))
	for _, item := range items {
		m := Object(item)
		accounts = append(accounts, models.Account{
			ID:           Int(m["id"]),
			AWSAccountID: String(m["aws_account_id"], models.LabelUnknown),
			RoleARN:      String(m["role_arn"], models.LabelNA),
			ExternalID:   String(m["external_id"], ""),
			IsActive:     Bool(m["is_active"]),
			CreatedAt:    Time(m["created_at"]),
			LastSynced:   TimePtr(m["last_synced"]),
		})
	}
	return accounts, nil
}

// Sync builds the result of a sync trigger.
func Sync(body []byte) (*models.SyncResult, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	details := Object(root["details"])

	return &models.SyncResult{
		Status:        String(root["status"], models.LabelUnknown),
		Message:       String(root["message"], ""),
		LastSync:      TimePtr(root["last_sync"]),
		RecordsSynced: Int(details["daily_records_synced"]),
		HasRecentData: Bool(details["has_recent_data"]),
	}, nil
}

// Action builds a status/message acknowledgement.
func Action(body []byte) (*models.ActionResult, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	return &models.ActionResult{
		Status:  String(root["status"], models.LabelUnknown),
		Message: String(first(root, "message", "error"), ""),
	}, nil
}

// Setup builds the cross-account role setup data. The platform info and
// external id endpoints name the platform account differently.
func Setup(body []byte) (*models.AccountSetup, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)

	setup := &models.AccountSetup{
		ExternalID:        String(root["external_id"], ""),
		PlatformAccountID: String(first(root, "platform_account_id", "aws_account_id"), models.LabelUnknown),
		RoleName:          String(root["role_name"], models.LabelNA),
	}

	switch p := root["policy_json"].(type) {
	case string:
		setup.PolicyJSON = p
	case map[string]any:
		if b, err := json.MarshalIndent(p, "", "  "); err == nil {
			setup.PolicyJSON = string(b)
		}
	}
	return setup, nil
}
