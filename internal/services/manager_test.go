package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/auth"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/config"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/db"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type testEnv struct {
	mgr      *Manager
	database *db.DB
	tokens   *auth.Store

	mu       sync.Mutex
	requests []string
	notified []string
}

func (e *testEnv) calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

// newTestManager wires a Manager to a temp token file, a temp database and
// a mocked backend.
func newTestManager(t *testing.T, opts Options, handler func(req *http.Request) (*http.Response, error)) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()

	tokens, err := auth.Open(filepath.Join(tmpDir, "token.json"))
	if err != nil {
		t.Fatalf("auth.Open failed: %v", err)
	}
	if err := tokens.Save("secret"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	database, err := db.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	env := &testEnv{database: database, tokens: tokens}

	opts.Tokens = tokens
	opts.Database = database
	opts.Client = api.NewClient(api.Config{
		BaseURL: "http://backend.test",
		Tokens:  tokens,
		HTTPClient: &http.Client{Transport: &MockRoundTripper{RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			env.mu.Lock()
			call := req.Method + " " + req.URL.Path
			if req.URL.RawQuery != "" {
				call += "?" + req.URL.RawQuery
			}
			env.requests = append(env.requests, call)
			env.mu.Unlock()
			return handler(req)
		}}},
	})
	if opts.Notify == nil {
		opts.Notify = func(title, body string) error {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.notified = append(env.notified, title)
			return nil
		}
	}

	env.mgr = New(opts)
	t.Cleanup(func() { _ = env.mgr.Close() })
	return env
}

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:     "http://localhost:8000",
		TokenPath:      filepath.Join(tmpDir, "token.json"),
		DatabasePath:   filepath.Join(tmpDir, "test.db"),
		RequestTimeout: time.Second,
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if mgr.Client() == nil || mgr.Database() == nil || mgr.Tokens() == nil {
		t.Error("components should be initialized")
	}
	if mgr.Authenticated() {
		t.Error("a fresh token path should be logged out")
	}
}

func TestManager_FetchStoresSnapshot(t *testing.T) {
	env := newTestManager(t, Options{CacheTTL: time.Minute}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"total_spend": "12.5", "current_month_name": "March"}`), nil
	})

	res, err := env.mgr.Fetch(context.Background(), models.SliceSpend, 3, api.FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	spend, ok := res.Data.(*models.SpendSummary)
	if !ok || spend.TotalSpend != 12.5 {
		t.Fatalf("Data = %#v", res.Data)
	}

	cached, fresh := env.mgr.Cached(3, models.SliceSpend)
	if cached == nil || !fresh || cached.FromStore {
		t.Fatalf("Cached() = (%+v, %v), want fresh memory hit", cached, fresh)
	}

	// A second manager over the same database sees the stored snapshot.
	other := New(Options{Database: env.database, CacheTTL: time.Minute})
	stored, _ := other.Cached(3, models.SliceSpend)
	if stored == nil || !stored.FromStore {
		t.Fatalf("Cached() from store = %+v", stored)
	}
	if s := stored.Data.(*models.SpendSummary); s.MonthLabel != "March" {
		t.Errorf("stored MonthLabel = %q", s.MonthLabel)
	}
}

func TestManager_FetchFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		status int
		isAuth bool
	}{
		{"ServerError", http.StatusInternalServerError, false},
		{"Unauthenticated", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestManager(t, Options{}, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, `{"error": "nope"}`), nil
			})

			_, err := env.mgr.Fetch(context.Background(), models.SliceLowLevel, 1, api.FetchOptions{})
			if err == nil {
				t.Fatal("Fetch() should fail")
			}
			if errors.Is(err, api.ErrUnauthenticated) != tt.isAuth {
				t.Errorf("error = %v", err)
			}

			if res, _ := env.mgr.Cached(1, models.SliceLowLevel); res != nil {
				t.Errorf("nothing should be cached, got %+v", res)
			}
		})
	}
}

func TestManager_ForgetDropsStoredSnapshot(t *testing.T) {
	env := newTestManager(t, Options{CacheTTL: time.Minute}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"total_spend": "8"}`), nil
	})

	if _, err := env.mgr.Fetch(context.Background(), models.SliceSpend, 1, api.FetchOptions{}); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	env.mgr.Forget(1, models.SliceSpend)

	if res, _ := env.mgr.Cached(1, models.SliceSpend); res != nil {
		t.Errorf("Cached() = %+v, want nothing after Forget", res)
	}
	other := New(Options{Database: env.database})
	if res, _ := other.Cached(1, models.SliceSpend); res != nil {
		t.Errorf("stored snapshot survived Forget: %+v", res)
	}
}

func TestManager_FetchRejectsAccountsSlice(t *testing.T) {
	env := newTestManager(t, Options{}, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := env.mgr.Fetch(context.Background(), models.SliceAccounts, 1, api.FetchOptions{}); err == nil {
		t.Error("Fetch(SliceAccounts) should fail")
	}
}

func TestManager_Sync(t *testing.T) {
	env := newTestManager(t, Options{}, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(http.StatusOK, `{"status": "success", "message": "Synced", "details": {"daily_records_synced": 30}}`), nil
		}
		return jsonResponse(http.StatusOK, `{"total_spend": 40}`), nil
	})

	out, err := env.mgr.Sync(context.Background(), 5)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if out.Result.RecordsSynced != 30 || out.Spend == nil || out.SpendErr != nil {
		t.Fatalf("outcome = %+v", out)
	}

	want := []string{"POST /aws-accounts/5/sync/", "GET /aws-accounts/5/analytics/?no_cache=true"}
	got := env.calls()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("requests = %v, want %v", got, want)
	}

	runs, err := env.mgr.SyncHistory(5, 10)
	if err != nil || len(runs) != 1 || runs[0].RecordsSynced != 30 {
		t.Errorf("SyncHistory() = %+v, %v", runs, err)
	}
	if len(env.notified) != 1 {
		t.Errorf("notifications = %v, want one", env.notified)
	}
}

func TestManager_SyncGraceDelayCancelled(t *testing.T) {
	env := newTestManager(t, Options{SyncGraceDelay: time.Hour}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status": "success"}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := env.mgr.Sync(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Sync() should return promptly when cancelled")
	}
	if calls := env.calls(); len(calls) != 1 {
		t.Errorf("spend must not be fetched after cancellation, requests = %v", calls)
	}
}

func TestManager_ClearCache(t *testing.T) {
	env := newTestManager(t, Options{CacheTTL: time.Minute}, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(http.StatusOK, `{"status": "success", "message": "Cache cleared"}`), nil
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	ctx := context.Background()

	for _, slice := range []models.Slice{models.SliceSpend, models.SliceInventory} {
		if _, err := env.mgr.Fetch(ctx, slice, 2, api.FetchOptions{}); err != nil {
			t.Fatalf("Fetch(%s) failed: %v", slice, err)
		}
	}

	res, err := env.mgr.ClearCache(ctx, 2)
	if err != nil || !res.OK() {
		t.Fatalf("ClearCache() = %+v, %v", res, err)
	}

	if _, fresh := env.mgr.Cached(2, models.SliceSpend); !fresh {
		t.Error("spend should survive a resource cache clear")
	}
	// The inventory is still on disk, but no longer fresh in memory.
	if res, fresh := env.mgr.Cached(2, models.SliceInventory); res == nil || !res.FromStore || !fresh {
		t.Errorf("inventory after clear = %+v, fresh=%v", res, fresh)
	}
}

func TestManager_SpendAlert(t *testing.T) {
	change := "10"
	env := newTestManager(t, Options{SpendAlertPercent: 25}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"monthly_change": `+change+`}`), nil
	})
	ch, _ := env.mgr.Subscribe()

	fetch := func() {
		t.Helper()
		if _, err := env.mgr.Fetch(context.Background(), models.SliceSpend, 1, api.FetchOptions{}); err != nil {
			t.Fatalf("Fetch() failed: %v", err)
		}
	}

	fetch()
	change = "30"
	fetch()
	fetch()

	if len(env.notified) != 1 {
		t.Errorf("notifications = %v, want exactly one crossing", env.notified)
	}

	select {
	case ev := <-ch:
		alert, ok := ev.(SpendAlertEvent)
		if !ok || alert.ChangePercent != 30 {
			t.Errorf("event = %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no SpendAlertEvent received")
	}
}

func TestManager_LogoutAndSubscribe(t *testing.T) {
	env := newTestManager(t, Options{}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	})

	if !env.mgr.Authenticated() {
		t.Fatal("token was saved")
	}
	if err := env.mgr.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if env.mgr.Authenticated() {
		t.Error("Logout() should clear the token")
	}

	ch, _ := env.mgr.Subscribe()
	env.mgr.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("Unsubscribe() should close the channel")
	}

	if err := env.mgr.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := env.mgr.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestWaitForEvent_Closed(t *testing.T) {
	ch := make(chan ServiceEvent)
	close(ch)
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("WaitForEvent() on closed channel = %v, want nil", msg)
	}
}
