package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const defaultTwitterBaseURL = "https://api.twitter.com/2"

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// TwitterAdapter publishes tweets through the v2 API. Media urls are appended
// to the text; the 280 character limit is enforced on the final text before
// the call.
type TwitterAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewTwitterAdapter(creds CredentialSource) (*TwitterAdapter, error) {
	return NewTwitterAdapterWithClient(creds, newAdapterClient(), defaultTwitterBaseURL)
}

func NewTwitterAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*TwitterAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &TwitterAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *TwitterAdapter) Platform() domain.Platform { return domain.PlatformTwitter }

func (a *TwitterAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("adapter is not initialized")
	}

	text := input.Content
	if len(input.Media) > 0 {
		text = fmt.Sprintf("%s %s", text, strings.Join(input.Media, " "))
	}
	if err := validateContentLength(a.Platform(), text); err != nil {
		return nil, err
	}

	cred, err := a.creds.Credential(ctx, a.Platform())
	if err != nil {
		return nil, credentialError(a.Platform(), err)
	}

	var remote tweetResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cred.AccessToken).
		SetBody(tweetRequest{Text: text}).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/tweets", a.baseURL))
	if err != nil {
		return nil, transportError(err)
	}

	if response.IsError() {
		return nil, classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}

	return &PostResult{
		RemoteID:   remote.Data.ID,
		StatusCode: response.StatusCode(),
		Body:       strings.TrimSpace(response.String()),
	}, nil
}

func (a *TwitterAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	response, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		Get(fmt.Sprintf("%s/users/me", a.baseURL))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}
