package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"referral-rewards-system/config"
	"referral-rewards-system/models"

	"github.com/wneessen/go-mail"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WinnerNotification carries everything the congratulation message shows.
type WinnerNotification struct {
	Recipient     string
	Name          string
	ReferralCount int64
	Prize         string
	Period        models.PeriodType
	Date          string
	ReferralCode  string
}

// Notifier delivers winner notifications. Delivery happens after the payout
// commits, so an error here is reported but never rolls anything back.
type Notifier interface {
	NotifyWinner(ctx context.Context, n WinnerNotification) error
}

// LogNotifier writes notifications to the log. Used when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) NotifyWinner(_ context.Context, n WinnerNotification) error {
	log.Printf("[Notify] 📨 %s winner %s <%s>: %d referrals, prize %s (%s)",
		n.Period, n.Name, n.Recipient, n.ReferralCount, n.Prize, n.Date)
	return nil
}

// WelcomeNotification is the signup message carrying the new user's referral link.
type WelcomeNotification struct {
	Recipient    string
	Name         string
	ReferralCode string
	ReferralLink string
}

// WelcomeSender delivers signup messages. A failed send never undoes the signup.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, n WelcomeNotification) error
}

func (LogNotifier) SendWelcome(_ context.Context, n WelcomeNotification) error {
	log.Printf("[Notify] 📨 welcome %s <%s>: code %s, link %s", n.Name, n.Recipient, n.ReferralCode, n.ReferralLink)
	return nil
}

var winnerEmailTmpl = template.Must(template.New("winner").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h1 style="color: #1a73e8;">🎉 Congratulations, {{.Name}}!</h1>
    <p>You are the <strong>{{.PeriodLabel}} Referral Winner</strong> for {{.Date}}.</p>
    <table style="border-collapse: collapse; margin: 16px 0;">
      <tr><td style="padding: 4px 12px 4px 0;">Referrals</td><td><strong>{{.ReferralCount}}</strong></td></tr>
      <tr><td style="padding: 4px 12px 4px 0;">Prize</td><td><strong>{{.Prize}}</strong></td></tr>
    </table>
    <p>Your prize has been added to your balance. Keep sharing your code <strong>{{.ReferralCode}}</strong> to win again!</p>
  </div>
</body>
</html>`))

var welcomeEmailTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h1 style="color: #1a73e8;">Welcome, {{.Name}}!</h1>
    <p>We're thrilled to have you with us.</p>
    <p>Your referral code is <strong>{{.ReferralCode}}</strong>. Share your link and climb the daily and weekly leaderboards:</p>
    <p><a href="{{.ReferralLink}}">{{.ReferralLink}}</a></p>
    <p>If you have any questions, just reply to this email.</p>
  </div>
</body>
</html>`))

const welcomeSubject = "Welcome! Here's your referral link"

// RenderWelcomeEmail renders the signup HTML body.
func RenderWelcomeEmail(n WelcomeNotification) (string, error) {
	var buf bytes.Buffer
	if err := welcomeEmailTmpl.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render welcome email: %w", err)
	}
	return buf.String(), nil
}

// PeriodLabel capitalises the period for display, e.g. "Weekly".
func PeriodLabel(p models.PeriodType) string {
	return cases.Title(language.English).String(string(p))
}

// WinnerSubject is the subject line for a winner notification.
func WinnerSubject(n WinnerNotification) string {
	return fmt.Sprintf("🎉 Congratulations! You're the %s Referral Winner!", PeriodLabel(n.Period))
}

// RenderWinnerEmail renders the HTML body. Names are escaped by html/template.
func RenderWinnerEmail(n WinnerNotification) (string, error) {
	var buf bytes.Buffer
	data := struct {
		WinnerNotification
		PeriodLabel string
	}{n, PeriodLabel(n.Period)}
	if err := winnerEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render winner email: %w", err)
	}
	return buf.String(), nil
}

// EmailNotifier sends winner notifications over SMTP with implicit TLS.
type EmailNotifier struct {
	cfg config.SMTPConfig
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (e *EmailNotifier) NotifyWinner(ctx context.Context, n WinnerNotification) error {
	msg, err := e.message(n)
	if err != nil {
		return err
	}
	if err := e.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send winner email to %s: %w", n.Recipient, err)
	}

	log.Printf("[Notify] ✅ Winner email sent to %s", n.Recipient)
	return nil
}

func (e *EmailNotifier) SendWelcome(ctx context.Context, n WelcomeNotification) error {
	body, err := RenderWelcomeEmail(n)
	if err != nil {
		return err
	}
	msg, err := e.newMsg(n.Recipient, welcomeSubject, body)
	if err != nil {
		return err
	}
	if err := e.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send welcome email to %s: %w", n.Recipient, err)
	}

	log.Printf("[Notify] ✅ Welcome email sent to %s", n.Recipient)
	return nil
}

func (e *EmailNotifier) send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(e.cfg.Host,
		mail.WithPort(e.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.Username),
		mail.WithPassword(e.cfg.Password),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (e *EmailNotifier) message(n WinnerNotification) (*mail.Msg, error) {
	body, err := RenderWinnerEmail(n)
	if err != nil {
		return nil, err
	}
	return e.newMsg(n.Recipient, WinnerSubject(n), body)
}

func (e *EmailNotifier) newMsg(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", e.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
