package social

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrNoContact means no usable whatsapp number is configured
var ErrNoContact = shared.NewDomainError("NO_CONTACT", "No WhatsApp number is configured")

// Kind names a social network
type Kind string

const (
	KindWhatsapp  Kind = "whatsapp"
	KindFacebook  Kind = "facebook"
	KindInstagram Kind = "instagram"
	KindSnapchat  Kind = "snapchat"
)

// Kinds returns every supported kind
func Kinds() []Kind {
	return []Kind{KindWhatsapp, KindFacebook, KindInstagram, KindSnapchat}
}

// Links is the singleton social-links document. Unset fields are empty strings.
type Links struct {
	Whatsapp  string `json:"whatsapp"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Snapchat  string `json:"snapchat"`
}

// Get returns the raw value stored for kind
func (l Links) Get(kind Kind) string {
	switch kind {
	case KindWhatsapp:
		return l.Whatsapp
	case KindFacebook:
		return l.Facebook
	case KindInstagram:
		return l.Instagram
	case KindSnapchat:
		return l.Snapchat
	default:
		return ""
	}
}

// Normalize trims surrounding whitespace from every field
func (l Links) Normalize() Links {
	return Links{
		Whatsapp:  strings.TrimSpace(l.Whatsapp),
		Facebook:  strings.TrimSpace(l.Facebook),
		Instagram: strings.TrimSpace(l.Instagram),
		Snapchat:  strings.TrimSpace(l.Snapchat),
	}
}

// Formatted returns the display URL for every kind that has one
func (l Links) Formatted() map[Kind]string {
	out := make(map[Kind]string, 4)
	for _, k := range Kinds() {
		if u, ok := FormatLink(k, l.Get(k)); ok {
			out[k] = u
		}
	}
	return out
}

// Digits strips every non-digit character from s.
// Arabic-Indic digits are mapped onto ASCII.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '\u0660' && r <= '\u0669':
			b.WriteRune('0' + r - '\u0660')
		case r >= '\u06F0' && r <= '\u06F9':
			b.WriteRune('0' + r - '\u06F0')
		}
	}
	return b.String()
}

// FormatLink turns a stored value into a link. The bool is false when the
// link should be omitted.
//
// A whatsapp value that already is an http(s) URL is returned unchanged;
// anything else is reduced to its digits and wrapped as https://wa.me/<digits>.
// Other kinds are returned as stored.
func FormatLink(kind Kind, raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	if kind != KindWhatsapp {
		return value, true
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return value, true
	}
	digits := Digits(value)
	if digits == "" {
		return "", false
	}
	return "https://wa.me/" + digits, true
}
