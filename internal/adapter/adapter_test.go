package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

type stubCredentials struct {
	creds map[domain.Platform]domain.Credential
	errs  map[domain.Platform]error
}

func (s *stubCredentials) Credential(_ context.Context, platform domain.Platform) (domain.Credential, error) {
	if err, ok := s.errs[platform]; ok {
		return domain.Credential{}, err
	}
	cred, ok := s.creds[platform]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return cred, nil
}

func testClient() *resty.Client {
	client := resty.New()
	client.SetTimeout(2 * time.Second)
	return client
}

func TestFacebookAdapterPostSuccess(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody facebookPostRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"page-1_987"}`))
	}))
	defer server.Close()

	creds := &stubCredentials{creds: map[domain.Platform]domain.Credential{
		domain.PlatformFacebook: {
			Platform:    domain.PlatformFacebook,
			AccessToken: "fb-token",
			Metadata:    map[string]string{"page_id": "page-1"},
		},
	}}

	a, err := NewFacebookAdapterWithClient(creds, testClient(), server.URL)
	if err != nil {
		t.Fatalf("NewFacebookAdapterWithClient() error = %v", err)
	}

	result, err := a.Post(context.Background(), PostInput{
		Content: "grand opening saturday",
		Media:   []string{"https://example.com/flyer.jpg"},
	})
	if err != nil {
		t.Fatalf("Post() unexpected error: %v", err)
	}

	if result.RemoteID != "page-1_987" {
		t.Fatalf("RemoteID = %q, want %q", result.RemoteID, "page-1_987")
	}
	if gotPath != "/page-1/feed" {
		t.Fatalf("path = %q, want %q", gotPath, "/page-1/feed")
	}
	if gotBody.Message != "grand opening saturday" {
		t.Fatalf("message = %q, want post content", gotBody.Message)
	}
	if gotBody.Link != "https://example.com/flyer.jpg" {
		t.Fatalf("link = %q, want media url", gotBody.Link)
	}
	if gotBody.AccessToken != "fb-token" {
		t.Fatalf("access_token = %q, want credential token", gotBody.AccessToken)
	}
}

func TestFacebookAdapterStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		retryAfter string
		wantKind   domain.FailureKind
	}{
		{name: "unauthorized is expired", statusCode: http.StatusUnauthorized, wantKind: domain.FailureExpired},
		{name: "forbidden is expired", statusCode: http.StatusForbidden, wantKind: domain.FailureExpired},
		{name: "too many requests is rate limited", statusCode: http.StatusTooManyRequests, retryAfter: "30", wantKind: domain.FailureRateLimited},
		{name: "bad request is invalid content", statusCode: http.StatusBadRequest, wantKind: domain.FailureInvalidContent},
		{name: "server error is transient", statusCode: http.StatusBadGateway, wantKind: domain.FailureTransientNetwork},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			creds := &stubCredentials{creds: map[domain.Platform]domain.Credential{
				domain.PlatformFacebook: {
					Platform:    domain.PlatformFacebook,
					AccessToken: "fb-token",
					Metadata:    map[string]string{"page_id": "page-1"},
				},
			}}

			a, err := NewFacebookAdapterWithClient(creds, testClient(), server.URL)
			if err != nil {
				t.Fatalf("NewFacebookAdapterWithClient() error = %v", err)
			}

			_, err = a.Post(context.Background(), PostInput{Content: "hello"})
			if err == nil {
				t.Fatal("Post() expected error")
			}

			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("KindOf() = %s, want %s", got, tt.wantKind)
			}

			if tt.retryAfter != "" {
				var adapterErr *Error
				if !errors.As(err, &adapterErr) {
					t.Fatalf("error is not *Error: %v", err)
				}
				if adapterErr.RetryAfter == nil || *adapterErr.RetryAfter != 30*time.Second {
					t.Fatalf("RetryAfter = %v, want 30s", adapterErr.RetryAfter)
				}
			}
		})
	}
}

func TestAdapterFailsFastWithoutCredential(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		credErr  error
		wantKind domain.FailureKind
	}{
		{name: "missing credential", credErr: domain.ErrNotFound, wantKind: domain.FailureNotFound},
		{name: "expired credential", credErr: domain.ErrExpired, wantKind: domain.FailureExpired},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creds := &stubCredentials{errs: map[domain.Platform]error{
				domain.PlatformTwitter: tt.credErr,
			}}

			a, err := NewTwitterAdapterWithClient(creds, testClient(), server.URL)
			if err != nil {
				t.Fatalf("NewTwitterAdapterWithClient() error = %v", err)
			}

			_, err = a.Post(context.Background(), PostInput{Content: "hello"})
			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("KindOf() = %s, want %s", got, tt.wantKind)
			}
		})
	}

	if calls.Load() != 0 {
		t.Fatalf("adapter issued %d network calls, want 0", calls.Load())
	}
}

func TestTwitterAdapterRejectsOverLimitBeforeNetworkCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	creds := &stubCredentials{creds: map[domain.Platform]domain.Credential{
		domain.PlatformTwitter: {Platform: domain.PlatformTwitter, AccessToken: "tw-token"},
	}}

	a, err := NewTwitterAdapterWithClient(creds, testClient(), server.URL)
	if err != nil {
		t.Fatalf("NewTwitterAdapterWithClient() error = %v", err)
	}

	_, err = a.Post(context.Background(), PostInput{
		Content: strings.Repeat("a", domain.MaxTwitterContent+1),
	})
	if got := KindOf(err); got != domain.FailureInvalidContent {
		t.Fatalf("KindOf() = %s, want %s", got, domain.FailureInvalidContent)
	}
	if calls.Load() != 0 {
		t.Fatalf("adapter issued %d network calls, want 0", calls.Load())
	}
}

func TestInstagramAdapterRequiresMedia(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	creds := &stubCredentials{creds: map[domain.Platform]domain.Credential{
		domain.PlatformInstagram: {
			Platform:    domain.PlatformInstagram,
			AccessToken: "ig-token",
			Metadata:    map[string]string{"instagram_user_id": "ig-1"},
		},
	}}

	a, err := NewInstagramAdapterWithClient(creds, testClient(), server.URL)
	if err != nil {
		t.Fatalf("NewInstagramAdapterWithClient() error = %v", err)
	}

	_, err = a.Post(context.Background(), PostInput{Content: "caption only"})
	if got := KindOf(err); got != domain.FailureInvalidContent {
		t.Fatalf("KindOf() = %s, want %s", got, domain.FailureInvalidContent)
	}
	if calls.Load() != 0 {
		t.Fatalf("adapter issued %d network calls, want 0", calls.Load())
	}
}

func TestTwitterAdapterPostSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1801"}}`))
	}))
	defer server.Close()

	creds := &stubCredentials{creds: map[domain.Platform]domain.Credential{
		domain.PlatformTwitter: {Platform: domain.PlatformTwitter, AccessToken: "tw-token"},
	}}

	a, err := NewTwitterAdapterWithClient(creds, testClient(), server.URL)
	if err != nil {
		t.Fatalf("NewTwitterAdapterWithClient() error = %v", err)
	}

	result, err := a.Post(context.Background(), PostInput{Content: "hello"})
	if err != nil {
		t.Fatalf("Post() unexpected error: %v", err)
	}
	if result.RemoteID != "1801" {
		t.Fatalf("RemoteID = %q, want %q", result.RemoteID, "1801")
	}
	if gotAuth != "Bearer tw-token" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestVerifyDoesNotMutateState(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("Verify used method %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte(`{"id":"me"}`))
	}))
	defer server.Close()

	creds := &stubCredentials{}
	a, err := NewFacebookAdapterWithClient(creds, testClient(), server.URL)
	if err != nil {
		t.Fatalf("NewFacebookAdapterWithClient() error = %v", err)
	}

	cred := domain.Credential{Platform: domain.PlatformFacebook, AccessToken: "fb-token"}
	for i := 0; i < 2; i++ {
		if err := a.Verify(context.Background(), cred); err != nil {
			t.Fatalf("Verify() call %d unexpected error: %v", i+1, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("Verify issued %d calls, want 2", calls.Load())
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	creds := &stubCredentials{}
	fb, err := NewFacebookAdapter(creds)
	if err != nil {
		t.Fatalf("NewFacebookAdapter() error = %v", err)
	}
	tw, err := NewTwitterAdapter(creds)
	if err != nil {
		t.Fatalf("NewTwitterAdapter() error = %v", err)
	}

	registry, err := NewRegistry(fb, tw)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, ok := registry.Lookup(domain.PlatformFacebook); !ok {
		t.Fatal("Lookup(facebook) = false, want true")
	}
	if _, ok := registry.Lookup(domain.PlatformWix); ok {
		t.Fatal("Lookup(wix) = true, want false")
	}

	if _, err := NewRegistry(fb, fb); err == nil {
		t.Fatal("NewRegistry() with duplicate adapters expected error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	if got := parseRetryAfter("45"); got != 45*time.Second {
		t.Fatalf("parseRetryAfter(45) = %v, want 45s", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("parseRetryAfter(empty) = %v, want 0", got)
	}
	if got := parseRetryAfter("not-a-date"); got != 0 {
		t.Fatalf("parseRetryAfter(garbage) = %v, want 0", got)
	}
}
