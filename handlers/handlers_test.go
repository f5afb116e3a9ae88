package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"referral-rewards-system/config"
	"referral-rewards-system/models"
	"referral-rewards-system/services"
	"referral-rewards-system/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testToken = "s3cret"

var testNow = time.Date(2025, time.June, 4, 23, 59, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	periods := services.NewPeriodCalculator(time.UTC)

	board := services.NewLeaderboardService(db, periods)
	board.Now = func() time.Time { return testNow }

	winners := services.NewWinnerService(db, periods, []services.PeriodRule{
		{Type: models.PeriodDaily, Threshold: 20, Amount: decimal.NewFromInt(1)},
		{Type: models.PeriodWeekly, Threshold: 100, Amount: decimal.NewFromInt(5)},
	}, services.LogNotifier{}, nil)
	winners.Now = func() time.Time { return testNow }

	app := NewApp(config.ServerConfig{
		AllowedOrigins: "http://localhost:3000",
		GatewayToken:   testToken,
	}, Services{
		Referrals:   services.NewReferralService(db),
		Leaderboard: board,
		Profiles:    services.NewProfileService(db, board, "https://example.com/signup"),
		Winners:     winners,
	})
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: bad JSON %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	if status, body := do(t, app, http.MethodGet, "/health", "", nil); status != 200 || body["status"] != "ok" {
		t.Errorf("GET /health = %d %v", status, body)
	}
}

func TestSignupAndReferralFlow(t *testing.T) {
	app, db := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("POST /users = %d %v", status, body)
	}
	code, _ := body["referral_code"].(string)
	if code == "" {
		t.Fatalf("no referral_code in %v", body)
	}

	status, _ = do(t, app, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`, nil)
	if status != fiber.StatusConflict {
		t.Errorf("duplicate POST /users = %d, want 409", status)
	}

	status, body = do(t, app, http.MethodPost, "/referrals", `{"email":"bob@example.com","referrer_code":"`+code+`"}`, nil)
	if status != 200 {
		t.Fatalf("POST /referrals = %d %v", status, body)
	}
	status, _ = do(t, app, http.MethodPost, "/referrals", `{"email":"bob@example.com","referrer_code":"`+code+`"}`, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("repeat POST /referrals = %d, want 400", status)
	}
	status, _ = do(t, app, http.MethodPost, "/referrals", `{"email":"cy@example.com","referrer_code":"NOPE"}`, nil)
	if status != fiber.StatusNotFound {
		t.Errorf("unknown code POST /referrals = %d, want 404", status)
	}

	var ada models.User
	if err := db.Where("email = ?", "ada@example.com").First(&ada).Error; err != nil {
		t.Fatal(err)
	}
	if ada.ReferralsCount != 1 {
		t.Errorf("referrals_count = %d, want 1", ada.ReferralsCount)
	}
}

func TestLeaderboardAndProfileRoutes(t *testing.T) {
	app, db := newTestApp(t)
	ada := testutil.CreateUser(t, db, "ada")
	testutil.AddReferrals(t, db, ada, 3, testNow.Add(-time.Hour))

	status, body := do(t, app, http.MethodGet, "/leaderboard/daily", "", nil)
	if status != 200 {
		t.Fatalf("GET /leaderboard/daily = %d", status)
	}
	entries, _ := body["entries"].([]any)
	if len(entries) != 1 || body["period"] != "daily" {
		t.Errorf("daily body = %v", body)
	}

	status, body = do(t, app, http.MethodGet, "/profile/"+itoa(ada.ID), "", nil)
	if status != 200 {
		t.Fatalf("GET /profile = %d %v", status, body)
	}
	if body["dailyRank"] != float64(1) || body["totalReferrals"] != float64(3) {
		t.Errorf("profile = %v", body)
	}

	if status, _ := do(t, app, http.MethodGet, "/profile/999", "", nil); status != fiber.StatusNotFound {
		t.Errorf("GET /profile/999 = %d, want 404", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/profile/abc", "", nil); status != fiber.StatusBadRequest {
		t.Errorf("GET /profile/abc = %d, want 400", status)
	}
}

func TestAdminWinnerRun(t *testing.T) {
	app, db := newTestApp(t)
	ada := testutil.CreateUser(t, db, "ada")
	testutil.AddReferrals(t, db, ada, 20, testNow.Add(-time.Hour))

	if status, _ := do(t, app, http.MethodPost, "/admin/winners/run?period=daily", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("run without token = %d, want 401", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/admin/winners/run?period=daily", "", map[string]string{"Authorization": "Bearer wrong"}); status != fiber.StatusUnauthorized {
		t.Errorf("run with wrong token = %d, want 401", status)
	}

	auth := map[string]string{"Authorization": "Bearer " + testToken, "X-User-ID": "ops-1"}
	status, body := do(t, app, http.MethodPost, "/admin/winners/run?period=daily", "", auth)
	if status != 200 || body["status"] != string(services.SelectionWinnerRecorded) {
		t.Fatalf("first run = %d %v", status, body)
	}
	status, body = do(t, app, http.MethodPost, "/admin/winners/run?period=daily", "", auth)
	if status != 200 || body["status"] != string(services.SelectionAlreadyProcessed) {
		t.Errorf("second run = %d %v", status, body)
	}
	if status, _ := do(t, app, http.MethodPost, "/admin/winners/run?period=hourly", "", auth); status != fiber.StatusBadRequest {
		t.Errorf("unknown period = %d, want 400", status)
	}

	status, body = do(t, app, http.MethodGet, "/winners?type=daily", "", nil)
	if status != 200 || body["total"] != float64(1) {
		t.Errorf("GET /winners = %d %v", status, body)
	}
}

func TestPublicWinnersHideContactDetails(t *testing.T) {
	app, db := newTestApp(t)
	ada := testutil.CreateUser(t, db, "ada")
	testutil.AddReferrals(t, db, ada, 20, testNow.Add(-time.Hour))

	auth := map[string]string{"Authorization": "Bearer " + testToken}
	if status, body := do(t, app, http.MethodPost, "/admin/winners/run?period=daily", "", auth); status != 200 {
		t.Fatalf("run = %d %v", status, body)
	}

	status, body := do(t, app, http.MethodGet, "/winners", "", nil)
	if status != 200 || body["total"] != float64(1) {
		t.Fatalf("GET /winners = %d %v", status, body)
	}
	list, _ := body["winners"].([]any)
	if len(list) != 1 {
		t.Fatalf("winners = %v, want 1", body["winners"])
	}
	w, _ := list[0].(map[string]any)
	if w["name"] != "ada" || w["type"] != "daily" {
		t.Errorf("public winner = %v", w)
	}
	for _, key := range []string{"email", "referral_code", "total_earned", "user", "user_id"} {
		if _, ok := w[key]; ok {
			t.Errorf("public winner exposes %q: %v", key, w)
		}
	}

	if status, _ := do(t, app, http.MethodGet, "/admin/winners", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("admin list without token = %d, want 401", status)
	}
	status, body = do(t, app, http.MethodGet, "/admin/winners", "", auth)
	if status != 200 {
		t.Fatalf("GET /admin/winners = %d %v", status, body)
	}
	list, _ = body["winners"].([]any)
	if len(list) != 1 {
		t.Fatalf("admin winners = %v, want 1", body["winners"])
	}
	full, _ := list[0].(map[string]any)
	user, _ := full["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Errorf("admin winner user = %v, want email", full["user"])
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
