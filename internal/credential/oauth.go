package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const defaultExchangeTimeout = 10 * time.Second

// tokenEndpoints are the authorization-code exchange URLs. Parameter names
// beyond the standard code/client/secret set are adapter-internal detail.
var tokenEndpoints = map[domain.Platform]string{
	domain.PlatformFacebook:  "https://graph.facebook.com/v18.0/oauth/access_token",
	domain.PlatformInstagram: "https://graph.facebook.com/v18.0/oauth/access_token",
	domain.PlatformLinkedIn:  "https://www.linkedin.com/oauth/v2/accessToken",
	domain.PlatformTwitter:   "https://api.twitter.com/2/oauth2/token",
	domain.PlatformWix:       "https://www.wixapis.com/oauth/access",
}

// OAuthApp is one platform's client registration.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Exchanger swaps an OAuth authorization code for tokens and stores the
// resulting credential.
type Exchanger struct {
	store     *Store
	apps      map[domain.Platform]OAuthApp
	client    *resty.Client
	endpoints map[domain.Platform]string
	now       func() time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func NewExchanger(store *Store, apps map[domain.Platform]OAuthApp) (*Exchanger, error) {
	client := resty.New()
	client.SetTimeout(defaultExchangeTimeout)
	client.SetRetryCount(0)
	return NewExchangerWithClient(store, apps, client, tokenEndpoints)
}

func NewExchangerWithClient(
	store *Store,
	apps map[domain.Platform]OAuthApp,
	client *resty.Client,
	endpoints map[domain.Platform]string,
) (*Exchanger, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("token endpoints are required")
	}

	return &Exchanger{
		store:     store,
		apps:      apps,
		client:    client,
		endpoints: endpoints,
		now:       time.Now,
	}, nil
}

// Exchange swaps the callback code for tokens and persists the credential.
// The stored credential replaces any previous one for the platform.
func (e *Exchanger) Exchange(ctx context.Context, platform domain.Platform, code string) (*domain.Credential, error) {
	if !platform.IsValid() {
		return nil, fmt.Errorf("%w: invalid platform %q", domain.ErrValidation, platform)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", domain.ErrValidation)
	}

	endpoint, ok := e.endpoints[platform]
	if !ok {
		return nil, fmt.Errorf("%w: platform %q does not support code exchange", domain.ErrValidation, platform)
	}
	app, ok := e.apps[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no oauth app configured for %q", domain.ErrValidation, platform)
	}

	var token tokenResponse
	response, err := e.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "authorization_code",
			"code":          code,
			"client_id":     app.ClientID,
			"client_secret": app.ClientSecret,
			"redirect_uri":  app.RedirectURI,
		}).
		SetResult(&token).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("token exchange returned status %d: %s", response.StatusCode(), strings.TrimSpace(response.String()))
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("token exchange returned no access token")
	}

	cred := &domain.Credential{
		Platform:     platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if token.ExpiresIn > 0 {
		expiresAt := e.now().UTC().Add(time.Duration(token.ExpiresIn) * time.Second)
		cred.ExpiresAt = &expiresAt
	}

	if err := e.store.Set(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}
