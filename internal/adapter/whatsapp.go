package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

const credentialMetaPhoneNumberID = "phone_number_id"

type whatsappTextBody struct {
	Body string `json:"body"`
}

type whatsappMessageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsappTextBody `json:"text"`
}

type whatsappMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppAdapter sends messages through the Cloud API. The destination
// number comes from credential metadata; a post without one fails fast.
type WhatsAppAdapter struct {
	client  *resty.Client
	creds   CredentialSource
	baseURL string
}

func NewWhatsAppAdapter(creds CredentialSource) (*WhatsAppAdapter, error) {
	return NewWhatsAppAdapterWithClient(creds, newAdapterClient(), defaultGraphBaseURL)
}

func NewWhatsAppAdapterWithClient(creds CredentialSource, client *resty.Client, baseURL string) (*WhatsAppAdapter, error) {
	if err := checkAdapterDeps(creds, client, baseURL); err != nil {
		return nil, err
	}
	return &WhatsAppAdapter{
		client:  client,
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *WhatsAppAdapter) Platform() domain.Platform { return domain.PlatformWhatsApp }

func (a *WhatsAppAdapter) Post(ctx context.Context, input PostInput) (*PostResult, error) {
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

	phoneNumberID := cred.Meta(credentialMetaPhoneNumberID)
	if phoneNumberID == "" {
		return nil, contentError("whatsapp credential has no phone number id")
	}
	recipient := cred.Meta(credentialMetaRecipient)
	if recipient == "" {
		return nil, contentError("whatsapp credential has no recipient number")
	}

	var remote whatsappMessageResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cred.AccessToken).
		SetBody(whatsappMessageRequest{
			MessagingProduct: "whatsapp",
			To:               recipient,
			Type:             "text",
			Text:             whatsappTextBody{Body: input.Content},
		}).
		SetResult(&remote).
		Post(fmt.Sprintf("%s/%s/messages", a.baseURL, phoneNumberID))
	if err != nil {
		return nil, transportError(err)
	}

	if response.IsError() {
		return nil, classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}

	remoteID := ""
	if len(remote.Messages) > 0 {
		remoteID = remote.Messages[0].ID
	}

	return &PostResult{
		RemoteID:   remoteID,
		StatusCode: response.StatusCode(),
		Body:       strings.TrimSpace(response.String()),
	}, nil
}

func (a *WhatsAppAdapter) Verify(ctx context.Context, cred domain.Credential) error {
	phoneNumberID := cred.Meta(credentialMetaPhoneNumberID)
	if phoneNumberID == "" {
		return contentError("whatsapp credential has no phone number id")
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		Get(fmt.Sprintf("%s/%s", a.baseURL, phoneNumberID))
	if err != nil {
		return transportError(err)
	}
	if response.IsError() {
		return classifyStatus(response.StatusCode(), response.String(), response.Header().Get("Retry-After"))
	}
	return nil
}
