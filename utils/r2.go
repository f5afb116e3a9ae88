// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	rcfg "referral-rewards-system/config"
	"referral-rewards-system/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// ObjectPutter is the slice of the S3 API the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archive writes winner receipts to a Cloudflare R2 bucket.
type R2Archive struct {
	client     ObjectPutter
	bucket     string
	cdnBaseURL string
}

// WinnerReceipt is the JSON document stored for each paid winner.
type WinnerReceipt struct {
	WinnerID      uint              `json:"winner_id"`
	Type          models.PeriodType `json:"type"`
	PeriodStart   time.Time         `json:"period_start"`
	PeriodEnd     time.Time         `json:"period_end"`
	UserID        uint              `json:"user_id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	ReferralCount int64             `json:"referral_count"`
	Amount        decimal.Decimal   `json:"amount"`
	RecordedAt    time.Time         `json:"recorded_at"`
}

// NewR2Archive builds an archive from config. It returns nil, nil when R2 is not configured.
func NewR2Archive(ctx context.Context, cfg rcfg.ArchiveConfig) (*R2Archive, error) {
	if !cfg.Enabled() {
		log.Println("⚠️  [Archive] R2 not configured, winner receipts will not be archived")
		return nil, nil
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint
	}
	return NewR2ArchiveWithClient(client, cfg.Bucket, cdn), nil
}

func NewR2ArchiveWithClient(client ObjectPutter, bucket, cdnBaseURL string) *R2Archive {
	return &R2Archive{client: client, bucket: bucket, cdnBaseURL: cdnBaseURL}
}

// ReceiptKey is the object key for a winner receipt,
// e.g. "winners/daily/2025-06-04-ada-lovelace-12.json".
func ReceiptKey(w *models.Winner, u *models.User) string {
	return fmt.Sprintf("winners/%s/%s-%s-%d.json",
		w.Type, w.PeriodEnd.UTC().Format("2006-01-02"), slug.Make(u.Name), w.ID)
}

// ArchiveWinner uploads the receipt for a committed payout.
func (a *R2Archive) ArchiveWinner(ctx context.Context, w *models.Winner, u *models.User) error {
	body, err := json.Marshal(WinnerReceipt{
		WinnerID:      w.ID,
		Type:          w.Type,
		PeriodStart:   w.PeriodStart,
		PeriodEnd:     w.PeriodEnd,
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		ReferralCount: w.ReferralCount,
		Amount:        w.Amount,
		RecordedAt:    w.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	key := ReceiptKey(w, u)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}

	log.Printf("[Archive] ✅ Winner receipt stored at %s/%s", a.cdnBaseURL, key)
	return nil
}
