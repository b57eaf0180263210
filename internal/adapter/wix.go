package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const (
	defaultWixBaseURL = "https://www.wixapis.com"
	wixTitleMaxRunes  = 80
)

type wixDraftPost struct {
	Title string `json:"title"`
	RichContent struct {
		Text string `json:"text"`
	} `json:"richContent"`
	Media []string `json:"media,omitempty"`
}

type wixDraftRequest struct {
	DraftPost wixDraftPost `json:"draftPost"`
	Publish   bool         `json:"publish"`
}

type wixDraftResponse struct {
	DraftPost struct {
		ID string `json:"id"`
	} `json:"draftPost"`
}

// WixAdapter publishes blog posts through the Wix REST API. The first line of
// the content becomes the post title.
type WixAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewWixAdapter(creds CredentialSource) (*WixAdapter, error) {
	return NewWixAdapterWithClient(creds, newAdapterClient(), defaultWixBaseURL)
}

func NewWixAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*WixAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &WixAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *WixAdapter) Platform() domain.Platform { return domain.PlatformWix }

func (a *WixAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
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

	draft := wixDraftPost{Title: wixTitle(input.Content), Media: input.Media}
	draft.RichContent.Text = input.Content

	var remote wixDraftResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", cred.AccessToken).
		SetBody(wixDraftRequest{DraftPost: draft, Publish: true}).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/blog/v3/draft-posts", a.baseURL))
	if err != nil {
		return nil, transportError(err)
	}

	if response.IsError() {
		return nil, classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}

	return &PostResult{
		RemoteID:   remote.DraftPost.ID,
		StatusCode: response.StatusCode(),
		Body:       strings.TrimSpace(response.String()),
	}, nil
}

func (a *WixAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", cred.AccessToken).
		Get(fmt.Sprintf("%s/site-properties/v4/properties", a.baseURL))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}

func wixTitle(content string) string {
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	runes := []rune(strings.TrimSpace(line))
	if len(runes) > wixTitleMaxRunes {
		runes = runes[:wixTitleMaxRunes]
	}
	return string(runes)
}
