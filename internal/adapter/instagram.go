package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const credentialMetaIGUserID = "instagram_user_id"

type instagramPostRequest struct {
	Caption     string `json:"caption"`
	ImageURL    string `json:"image_url"`
	AccessToken string `json:"access_token"`
}

// InstagramAdapter publishes image posts through the Graph API. Instagram
// requires media: a text-only post is rejected before any network call.
type InstagramAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewInstagramAdapter(creds CredentialSource) (*InstagramAdapter, error) {
	return NewInstagramAdapterWithClient(creds, newAdapterClient(), defaultGraphBaseURL)
}

func NewInstagramAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*InstagramAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &InstagramAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *InstagramAdapter) Platform() domain.Platform { return domain.PlatformInstagram }

func (a *InstagramAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("adapter is not initialized")
	}
	if err := validateContentLength(a.Platform(), input.Content); err != nil {
		return nil, err
	}
	if len(input.Media) == 0 {
		return nil, contentError("instagram posts require at least one media url")
	}

	cred, err := a.creds.Credential(ctx, a.Platform())
	if err != nil {
		return nil, credentialError(a.Platform(), err)
	}

	userID := cred.Meta(credentialMetaIGUserID)
	if userID == "" {
		return nil, contentError("instagram credential has no business account id")
	}

	var remote graphIDResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(instagramPostRequest{
			Caption:     input.Content,
			ImageURL:    input.Media[0],
			AccessToken: cred.AccessToken,
		}).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/%s/media_publish", a.baseURL, userID))
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

func (a *InstagramAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	response, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", cred.AccessToken).
		Get(fmt.Sprintf("%s/me/accounts", a.baseURL))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}
