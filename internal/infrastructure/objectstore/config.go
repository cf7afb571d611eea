package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"NordicDataFlow/internal/domain"
)

// Config describes an S3-compatible endpoint and the bucket of each tier.
type Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	UsePathStyle bool
	Buckets      Buckets
}

// Buckets maps medallion tiers to bucket names.
type Buckets struct {
	Bronze string
	Silver string
	Gold   string
}

// For returns the bucket holding tier.
func (b Buckets) For(tier domain.Tier) (string, error) {
	var bucket string
	switch tier {
	case domain.TierBronze:
		bucket = b.Bronze
	case domain.TierSilver:
		bucket = b.Silver
	case domain.TierGold:
		bucket = b.Gold
	default:
		return "", fmt.Errorf("unknown tier %q", tier)
	}
	if bucket == "" {
		return "", fmt.Errorf("no bucket configured for tier %s", tier)
	}
	return bucket, nil
}

func (b Buckets) all() []string {
	return []string{b.Bronze, b.Silver, b.Gold}
}

// Validate checks the fields every remote backend needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("storage endpoint is required")
	}
	if c.AccessKey == "" {
		return errors.New("storage access key is required")
	}
	if c.SecretKey == "" {
		return errors.New("storage secret key is required")
	}
	for _, tier := range []domain.Tier{domain.TierBronze, domain.TierSilver, domain.TierGold} {
		if _, err := c.Buckets.For(tier); err != nil {
			return err
		}
	}
	return nil
}

// metaKey normalises user metadata keys; backends differ in the casing they hand back.
func metaKey(key string) string {
	return strings.TrimPrefix(strings.ToLower(key), "x-amz-meta-")
}
