package domain

import (
	"fmt"
	"strings"
	"time"
)

// Credential holds a platform access token plus refresh material. At most one
// active credential exists per platform.
type Credential struct {
	Platform     Platform
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c Credential) Validate() error {
	if !c.Platform.IsValid() {
		return fmt.Errorf("%w: invalid platform %q", ErrValidation, c.Platform)
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("%w: access token is required", ErrValidation)
	}
	return nil
}

// Expired reports whether the credential is past its validity at now.
// Credentials without an expiry never expire on their own.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// Meta returns a metadata value, e.g. the Facebook page id the token is
// scoped to.
func (c Credential) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
