package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"referral-rewards-system/models"
	"referral-rewards-system/testutil"
)

func TestGenerateReferralCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-F]{8}$`)
	for i := 0; i < 20; i++ {
		if code := generateReferralCode(); !re.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, re)
		}
	}
}

func TestRegisterUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewReferralService(db)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, RegisterUserInput{Name: " Ada ", Email: "Ada@Example.com"})
	if err != nil {
		t.Fatalf("RegisterUser() error: %v", err)
	}
	if user.Name != "Ada" || user.Email != "ada@example.com" {
		t.Errorf("user = %+v, want trimmed name and lowercased email", user)
	}
	if len(user.ReferralCode) != referralCodeLength {
		t.Errorf("ReferralCode = %q, want %d chars", user.ReferralCode, referralCodeLength)
	}

	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "", Email: "x@example.com"}); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing name error = %v, want ErrMissingField", err)
	}
}

func TestRegisterUser_WithReferrer(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewReferralService(db)
	ctx := context.Background()

	referrer, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Bob", Email: "bob@example.com", ReferrerCode: referrer.ReferralCode}); err != nil {
		t.Fatalf("RegisterUser() with referrer error: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, referrer.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.ReferralsCount != 1 {
		t.Errorf("referrals_count = %d, want 1", reloaded.ReferralsCount)
	}

	// A bad code rolls the whole signup back.
	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Cy", Email: "cy@example.com", ReferrerCode: "NOPE"}); !errors.Is(err, ErrInvalidReferralCode) {
		t.Fatalf("error = %v, want ErrInvalidReferralCode", err)
	}
	var n int64
	db.Model(&models.User{}).Where("email = ?", "cy@example.com").Count(&n)
	if n != 0 {
		t.Errorf("user created despite invalid referral code")
	}
}

func TestRegisterUser_RetriesCodeCollision(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewReferralService(db)
	ctx := context.Background()

	codes := []string{"AAAA1111", "AAAA1111", "BBBB2222"}
	svc.NewCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if first.ReferralCode != "AAAA1111" || second.ReferralCode != "BBBB2222" {
		t.Errorf("codes = %s, %s, want AAAA1111, BBBB2222", first.ReferralCode, second.ReferralCode)
	}
}

func TestProcessReferral(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewReferralService(db)
	ctx := context.Background()
	ada := testutil.CreateUser(t, db, "ada")

	tests := []struct {
		name    string
		email   string
		code    string
		wantErr error
	}{
		{"accepted", "new@example.com", ada.ReferralCode, nil},
		{"same email again", "NEW@example.com", ada.ReferralCode, ErrAlreadyReferred},
		{"unknown code", "other@example.com", "ZZZZZZZZ", ErrInvalidReferralCode},
		{"missing email", "", ada.ReferralCode, ErrMissingField},
		{"missing code", "other@example.com", "", ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := svc.ProcessReferral(ctx, tt.email, tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && ref.ReferrerID != ada.ID {
				t.Errorf("ReferrerID = %d, want %d", ref.ReferrerID, ada.ID)
			}
		})
	}

	var reloaded models.User
	if err := db.First(&reloaded, ada.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.ReferralsCount != 1 {
		t.Errorf("referrals_count = %d, want 1", reloaded.ReferralsCount)
	}
}

type recordingWelcome struct {
	mu   sync.Mutex
	sent []WelcomeNotification
	err  error
}

func (r *recordingWelcome) SendWelcome(_ context.Context, n WelcomeNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func TestRegisterUser_SendsWelcome(t *testing.T) {
	db := testutil.NewTestDB(t)
	welcome := &recordingWelcome{}
	svc := NewReferralService(db)
	svc.Welcome = welcome
	svc.SignupBaseURL = "https://example.com/signup"
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("RegisterUser() error: %v", err)
	}
	if len(welcome.sent) != 1 {
		t.Fatalf("welcome messages = %d, want 1", len(welcome.sent))
	}
	got := welcome.sent[0]
	if got.Recipient != "ada@example.com" || got.ReferralCode != user.ReferralCode {
		t.Errorf("welcome = %+v", got)
	}
	if want := "https://example.com/signup?ref=" + user.ReferralCode; got.ReferralLink != want {
		t.Errorf("ReferralLink = %q, want %q", got.ReferralLink, want)
	}

	// A rejected signup sends nothing.
	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate error = %v, want ErrEmailTaken", err)
	}
	if len(welcome.sent) != 1 {
		t.Errorf("welcome messages = %d after rejected signup, want 1", len(welcome.sent))
	}

	// Delivery failure keeps the user.
	welcome.err = errors.New("smtp unavailable")
	bob, err := svc.RegisterUser(ctx, RegisterUserInput{Name: "Bob", Email: "bob@example.com"})
	if err != nil || bob == nil {
		t.Fatalf("RegisterUser(bob) = %v, %v, want user despite send failure", bob, err)
	}
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", "bob@example.com").Count(&n).Error; err != nil || n != 1 {
		t.Errorf("bob rows = %d, %v, want 1", n, err)
	}
}
