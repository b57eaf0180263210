package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const (
	defaultLinkedInBaseURL  = "https://api.linkedin.com/v2"
	credentialMetaPersonURN = "person_urn"
)

type linkedinShareText struct {
	Text string `json:"text"`
}

type linkedinShareContent struct {
	ShareCommentary    linkedinShareText `json:"shareCommentary"`
	ShareMediaCategory string            `json:"shareMediaCategory"`
}

type linkedinPostRequest struct {
	Author          string                          `json:"author"`
	LifecycleState  string                          `json:"lifecycleState"`
	SpecificContent map[string]linkedinShareContent `json:"specificContent"`
	Visibility      map[string]string               `json:"visibility"`
}

// LinkedInAdapter publishes UGC posts on behalf of the connected member.
type LinkedInAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewLinkedInAdapter(creds CredentialSource) (*LinkedInAdapter, error) {
	return NewLinkedInAdapterWithClient(creds, newAdapterClient(), defaultLinkedInBaseURL)
}

func NewLinkedInAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*LinkedInAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &LinkedInAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *LinkedInAdapter) Platform() domain.Platform { return domain.PlatformLinkedIn }

func (a *LinkedInAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
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

	author := cred.Meta(credentialMetaPersonURN)
	if author == "" {
		return nil, contentError("linkedin credential has no person urn")
	}

	mediaCategory := "NONE"
	if len(input.Media) > 0 {
		mediaCategory = "ARTICLE"
	}

	reqBody := linkedinPostRequest{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]linkedinShareContent{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    linkedinShareText{Text: input.Content},
				ShareMediaCategory: mediaCategory,
			},
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var remote graphIDResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cred.AccessToken).
		SetBody(reqBody).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/ugcPosts", a.baseURL))
	if err != nil {
		return nil, transportError(err)
	}

	if response.IsError() {
		return nil, classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}

	remoteID := remote.ID
	if remoteID == "" {
		remoteID = strings.TrimSpace(response.Header().Get("X-RestLi-Id"))
	}

	return &PostResult{
		RemoteID:   remoteID,
		StatusCode: response.StatusCode(),
		Body:       strings.TrimSpace(response.String()),
	}, nil
}

func (a *LinkedInAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	response, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		Get(fmt.Sprintf("%s/me", a.baseURL))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}
