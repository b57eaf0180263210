package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParsePlatformFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Platform
		wantErr bool
	}{
		{name: "valid uppercase", input: "FACEBOOK", want: PlatformFacebook},
		{name: "valid lowercase with spaces", input: " linkedin ", want: PlatformLinkedIn},
		{name: "invalid", input: "myspace", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePlatformFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParsePlatformFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParsePlatformFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParsePlatformFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDispatchRequestValidate(t *testing.T) {
	t.Parallel()

	base := DispatchRequest{
		Platforms: []Platform{PlatformFacebook, PlatformTwitter},
		Content:   "hello from greensburg",
	}

	tests := []struct {
		name    string
		mutate  func(*DispatchRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *DispatchRequest) {},
		},
		{
			name: "empty platform set is allowed",
			mutate: func(r *DispatchRequest) {
				r.Platforms = nil
			},
		},
		{
			name: "missing content",
			mutate: func(r *DispatchRequest) {
				r.Content = "   "
			},
			wantErr: true,
		},
		{
			name: "invalid platform",
			mutate: func(r *DispatchRequest) {
				r.Platforms = []Platform{Platform("MYSPACE")}
			},
			wantErr: true,
		},
		{
			name: "duplicate platform",
			mutate: func(r *DispatchRequest) {
				r.Platforms = []Platform{PlatformWix, PlatformWix}
			},
			wantErr: true,
		},
		{
			name: "blank media url",
			mutate: func(r *DispatchRequest) {
				r.Media = []string{""}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestAggregateStatus(t *testing.T) {
	t.Parallel()

	ok := DispatchResult{Platform: PlatformFacebook, Success: true}
	bad := DispatchResult{Platform: PlatformTwitter, Success: false}

	tests := []struct {
		name    string
		results []DispatchResult
		want    PostStatus
	}{
		{name: "all succeeded", results: []DispatchResult{ok, ok}, want: PostStatusSent},
		{name: "all failed", results: []DispatchResult{bad, bad}, want: PostStatusFailed},
		{name: "partial", results: []DispatchResult{ok, bad}, want: PostStatusPartial},
		{name: "empty", results: nil, want: PostStatusSent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := AggregateStatus(tt.results); got != tt.want {
				t.Fatalf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCredentialExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	withExpiry := Credential{Platform: PlatformFacebook, AccessToken: "tok", ExpiresAt: &past}
	if !withExpiry.Expired(now) {
		t.Fatal("Expired() = false for past expiry, want true")
	}

	withExpiry.ExpiresAt = &future
	if withExpiry.Expired(now) {
		t.Fatal("Expired() = true for future expiry, want false")
	}

	noExpiry := Credential{Platform: PlatformTwitter, AccessToken: "tok"}
	if noExpiry.Expired(now) {
		t.Fatal("Expired() = true without expiry, want false")
	}
}

func TestCredentialValidate(t *testing.T) {
	t.Parallel()

	c := Credential{Platform: PlatformLinkedIn, AccessToken: "tok"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	c.AccessToken = "  "
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	c = Credential{Platform: Platform("MYSPACE"), AccessToken: "tok"}
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestRecordMatches(t *testing.T) {
	t.Parallel()

	r := Record{
		Kind: KindLead,
		Fields: map[string]any{
			"name":  "Jane Doe",
			"email": "jane@example.com",
		},
	}

	if !r.Matches(map[string]any{"email": "jane@example.com"}) {
		t.Fatal("Matches() = false for matching filter, want true")
	}
	if r.Matches(map[string]any{"email": "other@example.com"}) {
		t.Fatal("Matches() = true for mismatching filter, want false")
	}
	if !r.Matches(nil) {
		t.Fatal("Matches() = false for empty filter, want true")
	}
	if r.Matches(map[string]any{"phone": "555"}) {
		t.Fatal("Matches() = true for missing field, want false")
	}
}

func TestParseEntityKindFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseEntityKindFromString(" lead ")
	if err != nil {
		t.Fatalf("ParseEntityKindFromString() unexpected error = %v", err)
	}
	if got != KindLead {
		t.Fatalf("ParseEntityKindFromString() = %s, want %s", got, KindLead)
	}

	_, err = ParseEntityKindFromString("invoice")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseEntityKindFromString() error = %v, want ErrValidation", err)
	}
}

func TestMaxContentPerPlatform(t *testing.T) {
	t.Parallel()

	if got := MaxContent(PlatformTwitter); got != MaxTwitterContent {
		t.Fatalf("MaxContent(twitter) = %d, want %d", got, MaxTwitterContent)
	}
	if got := MaxContent(PlatformWix); got != MaxDefaultContent {
		t.Fatalf("MaxContent(wix) = %d, want %d", got, MaxDefaultContent)
	}

	// Limits are rune based at the adapter layer; the constant only bounds length.
	if len([]rune(strings.Repeat("ğ", MaxTwitterContent))) != MaxTwitterContent {
		t.Fatal("rune length mismatch")
	}
}
