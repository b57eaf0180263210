package domain

import (
	"fmt"
	"strings"
)

// Platform identifies an external service an adapter can publish to.
type Platform string

const (
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformLinkedIn  Platform = "LINKEDIN"
	PlatformTwitter   Platform = "TWITTER"
	PlatformWhatsApp  Platform = "WHATSAPP"
	PlatformWix       Platform = "WIX"
)

func (p Platform) String() string { return string(p) }

func (p Platform) IsValid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformLinkedIn, PlatformTwitter, PlatformWhatsApp, PlatformWix:
		return true
	}
	return false
}

func ParsePlatformFromString(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid platform %q", ErrValidation, s)
	}
	return p, nil
}

// AllPlatforms returns every supported platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformFacebook,
		PlatformInstagram,
		PlatformLinkedIn,
		PlatformTwitter,
		PlatformWhatsApp,
		PlatformWix,
	}
}

// Content limits per platform (in characters). Enforced before any network
// call so an over-limit post never reaches the wire.
const (
	MaxTwitterContent  = 280
	MaxLinkedInContent = 3000
	MaxFacebookContent = 63206
	MaxWhatsAppContent = 4096
	MaxDefaultContent  = 10000
)

// MaxContent returns the platform's post length limit.
func MaxContent(p Platform) int {
	switch p {
	case PlatformTwitter:
		return MaxTwitterContent
	case PlatformLinkedIn:
		return MaxLinkedInContent
	case PlatformFacebook, PlatformInstagram:
		return MaxFacebookContent
	case PlatformWhatsApp:
		return MaxWhatsAppContent
	default:
		return MaxDefaultContent
	}
}
