package apikeys

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidKey rejects a blank key.
var ErrInvalidKey = errors.New("api key is required")

// Record is the single stored reputation-service key.
type Record struct {
	APIKey    string    `json:"apiKey" db:"api_key"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Repository port. Only one key is ever stored; Save replaces it.
type Repository interface {
	Save(ctx context.Context, key string) error
	// Get reports found=false when no key has been saved.
	Get(ctx context.Context) (rec Record, found bool, err error)
}

// Validate trims key and rejects it when nothing is left.
func Validate(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return "", ErrInvalidKey
	}
	return k, nil
}
