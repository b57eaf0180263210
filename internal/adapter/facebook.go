package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const (
	defaultGraphBaseURL     = "https://graph.facebook.com/v18.0"
	defaultAdapterTimeout   = 10 * time.Second
	credentialMetaPageID    = "page_id"
	credentialMetaRecipient = "recipient"
)

type facebookPostRequest struct {
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
	AccessToken string `json:"access_token"`
}

type graphIDResponse struct {
	ID string `json:"id"`
}

// FacebookAdapter publishes page feed posts through the Graph API.
type FacebookAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewFacebookAdapter(creds CredentialSource) (*FacebookAdapter, error) {
	return NewFacebookAdapterWithClient(creds, newAdapterClient(), defaultGraphBaseURL)
}

func NewFacebookAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*FacebookAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &FacebookAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *FacebookAdapter) Platform() domain.Platform { return domain.PlatformFacebook }

func (a *FacebookAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("adapter is not initialized")
	}
	if err := validateContentLength(a.Platform(), input.Content); err != nil {
		return nil, err
	}

	cred, err := a.creds.Credential(ctx, a.Platform())
	if err != nil {
		return nil, credentialError(a.Platform(), err)
	}

	pageID := cred.Meta(credentialMetaPageID)
	if pageID == "" {
		return nil, contentError("facebook credential has no page id")
	}

	reqBody := facebookPostRequest{
		Message:     input.Content,
		AccessToken: cred.AccessToken,
	}
	if len(input.Media) > 0 {
		reqBody.Link = input.Media[0]
	}

	var remote graphIDResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/%s/feed", a.baseURL, pageID))
	if err != nil {
		return nil, transportError(err)
	}

	if response.IsError() {
		return nil, classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}

	return &PostResult{
		RemoteID:   remote.ID,
		StatusCode: response.StatusCode(),
		Body:       strings.TrimSpace(response.String()),
	}, nil
}

func (a *FacebookAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	response, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", cred.AccessToken).
		Get(fmt.Sprintf("%s/me", a.baseURL))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}

func newAdapterClient() *resty.Client {
	client := resty.New()
	client.SetTimeout(defaultAdapterTimeout)
	client.SetRetryCount(0)
	return client
}

func checkAdapterDeps(creds CredentialSource, client *resty.Client, baseURL string) error {
	if creds == nil {
		return fmt.Errorf("credential source is required")
	}
	if client == nil {
		return fmt.Errorf("resty client is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return fmt.Errorf("base url is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultAdapterTimeout)
	}
	client.SetRetryCount(0)
	return nil
}
