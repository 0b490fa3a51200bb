package normalize

import "testing"

func TestAccounts(t *testing.T) {
	body := `[
		{"id": 1, "aws_account_id": "123456789012", "role_arn": "arn:aws:iam::123456789012:role/CostRole",
			"is_active": true, "created_at": "2025-01-01T00:00:00Z", "last_synced": "2025-03-01T10:00:00Z"},
		{"id": "2", "aws_account_id": null, "last_synced": null}
	]`

	accounts, err := Accounts([]byte(body))
	if err != nil {
		t.Fatalf("Accounts() failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("len = %d, want 2", len(accounts))
	}
	if accounts[0].AWSAccountID != "123456789012" || !accounts[0].IsActive || accounts[0].NeverSynced() {
		t.Errorf("accounts[0] = %+v", accounts[0])
	}
	if accounts[1].ID != 2 || accounts[1].AWSAccountID != "Unknown" || accounts[1].RoleARN != "N/A" || !accounts[1].NeverSynced() {
		t.Errorf("accounts[1] = %+v", accounts[1])
	}
}

func TestAccounts_Paginated(t *testing.T) {
	accounts, err := Accounts([]byte(`{"count": 1, "results": [{"id": 5}]}`))
	if err != nil {
		t.Fatalf("Accounts() failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != 5 {
		t.Errorf("accounts = %+v", accounts)
	}

	accounts, err = Accounts([]byte(`{}`))
	if err != nil || accounts == nil || len(accounts) != 0 {
		t.Errorf("Accounts({}) = %v, %v; want empty", accounts, err)
	}
}

func TestSync(t *testing.T) {
	body := `{"status": "success", "message": "Synced 30 days", "last_sync": "2025-03-12T08:00:00Z",
		"details": {"daily_records_synced": 30, "account_id": "123456789012", "has_recent_data": true}}`

	r, err := Sync([]byte(body))
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if r.Status != "success" || r.RecordsSynced != 30 || !r.HasRecentData || r.LastSync == nil {
		t.Errorf("Sync() = %+v", r)
	}
}

func TestAction(t *testing.T) {
	r, err := Action([]byte(`{"status": "success", "message": "Cache cleared for account 1234"}`))
	if err != nil {
		t.Fatalf("Action() failed: %v", err)
	}
	if !r.OK() || r.Message == "" {
		t.Errorf("Action() = %+v", r)
	}

	r, _ = Action([]byte(`{"error": "Invalid role"}`))
	if r.OK() || r.Message != "Invalid role" {
		t.Errorf("Action() = %+v, want failed with error message", r)
	}
}

func TestSetup(t *testing.T) {
	body := `{"external_id": "abc-123", "aws_account_id": "999988887777", "role_name": "CloudCostRole",
		"policy_json": {"Version": "2012-10-17"}}`

	s, err := Setup([]byte(body))
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if s.ExternalID != "abc-123" || s.PlatformAccountID != "999988887777" || s.RoleName != "CloudCostRole" {
		t.Errorf("Setup() = %+v", s)
	}
	if s.PolicyJSON == "" {
		t.Error("PolicyJSON should be rendered from the object")
	}

	s, _ = Setup([]byte(`{"platform_account_id": "111122223333"}`))
	if s.PlatformAccountID != "111122223333" || s.RoleName != "N/A" || s.ExternalID != "" {
		t.Errorf("Setup(info) = %+v", s)
	}
}
