package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

// Mailer delivers one event as an email to the business owner.
type Mailer interface {
	Send(ctx context.Context, event domain.Event) error
}

// MailConfig carries the hosted mail API settings. The API is a template
// service: we post a template id plus parameters and it renders and sends
// the message.
type MailConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	UserKey    string
	ToEmail    string
}

type MailAPISender struct {
	client *resty.Client
	cfg    MailConfig
}

func NewMailAPISender(cfg MailConfig) (*MailAPISender, error) {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(0)

	return NewMailAPISenderWithClient(cfg, client)
}

func NewMailAPISenderWithClient(cfg MailConfig, client *resty.Client) (*MailAPISender, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("mail api endpoint is required")
	}
	if strings.TrimSpace(cfg.ToEmail) == "" {
		return nil, fmt.Errorf("mail recipient is required")
	}
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}

	return &MailAPISender{client: client, cfg: cfg}, nil
}

type mailRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *MailAPISender) Send(ctx context.Context, event domain.Event) error {
	params := map[string]string{
		"to_email":   s.cfg.ToEmail,
		"subject":    subjectFor(event.Kind),
		"event_kind": event.Kind.String(),
		"event_id":   event.ID,
	}
	for key, value := range event.Payload {
		params[key] = fmt.Sprint(value)
	}

	body := mailRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.UserKey,
		TemplateParams: params,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("mail api request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail api returned status %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}

	return nil
}

func subjectFor(kind domain.EventKind) string {
	switch kind {
	case domain.EventNewLead:
		return "New lead from the website"
	case domain.EventOrderConfirmed:
		return "Order confirmed"
	case domain.EventCampaignSent:
		return "Campaign dispatched"
	default:
		return "Notification"
	}
}
