package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/tnrbusiness/outreach/internal/credential"
	"github.com/tnrbusiness/outreach/internal/domain"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	SqlitePath  string `env:"SQLITE_PATH,default=outreach-fallback.db"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	MailAPIURL        string `env:"MAIL_API_URL"`
	MailServiceID     string `env:"MAIL_SERVICE_ID"`
	MailTemplateID    string `env:"MAIL_TEMPLATE_ID"`
	MailUserKey       string `env:"MAIL_USER_KEY"`
	NotificationEmail string `env:"NOTIFICATION_EMAIL"`

	FacebookAppID     string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret string `env:"FACEBOOK_APP_SECRET"`
	LinkedInClientID  string `env:"LINKEDIN_CLIENT_ID"`
	LinkedInSecret    string `env:"LINKEDIN_CLIENT_SECRET"`
	TwitterClientID   string `env:"TWITTER_CLIENT_ID"`
	TwitterSecret     string `env:"TWITTER_CLIENT_SECRET"`
	WixClientID       string `env:"WIX_CLIENT_ID"`
	WixSecret         string `env:"WIX_CLIENT_SECRET"`
	OAuthRedirectBase string `env:"OAUTH_REDIRECT_BASE,default=http://localhost:8080"`

	RateLimitPerSec       int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	AdapterTimeoutSeconds int    `env:"ADAPTER_TIMEOUT_SECONDS,default=15"`
	SchedulerIntervalSecs int    `env:"SCHEDULER_INTERVAL_SECONDS,default=15"`
	WorkerPrefetch        int    `env:"WORKER_PREFETCH,default=8"`
	APIPort               int    `env:"API_PORT,default=8080"`
	LogLevel              string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutSeconds) * time.Second
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalSecs) * time.Second
}

// MailEnabled reports whether enough mail settings are present to deliver
// notification emails.
func (c *Config) MailEnabled() bool {
	return strings.TrimSpace(c.MailAPIURL) != "" && strings.TrimSpace(c.NotificationEmail) != ""
}

// OAuthApps builds the per-platform app registrations from whatever
// client ids are configured. Platforms without an app simply cannot use
// the code-exchange flow; manual key entry still works for them.
func (c *Config) OAuthApps() map[domain.Platform]credential.OAuthApp {
	apps := make(map[domain.Platform]credential.OAuthApp)

	add := func(platform domain.Platform, clientID, secret string) {
		if strings.TrimSpace(clientID) == "" {
			return
		}
		apps[platform] = credential.OAuthApp{
			ClientID:     clientID,
			ClientSecret: secret,
			RedirectURI:  fmt.Sprintf("%s/v1/oauth/%s/callback", strings.TrimRight(c.OAuthRedirectBase, "/"), strings.ToLower(platform.String())),
		}
	}

	add(domain.PlatformFacebook, c.FacebookAppID, c.FacebookAppSecret)
	add(domain.PlatformInstagram, c.FacebookAppID, c.FacebookAppSecret)
	add(domain.PlatformLinkedIn, c.LinkedInClientID, c.LinkedInSecret)
	add(domain.PlatformTwitter, c.TwitterClientID, c.TwitterSecret)
	add(domain.PlatformWix, c.WixClientID, c.WixSecret)

	return apps
}
