// Package api is the typed client for the companion-chat backend. It is the
// sole boundary to the network: it attaches authorization, maps non-2xx
// responses to errors, and returns typed results.
package api

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the transcript. Immutable once received; ordering
// is server-assigned and preserved as returned. Only the server mints IDs.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Platform is a delivery platform preference.
type Platform string

const (
	PlatformWhatsApp Platform = "whatsapp"
	PlatformWeb      Platform = "web"
)

// Spiciness is the content ceiling the assistant will not escalate beyond.
type Spiciness string

const (
	SpicinessMild     Spiciness = "mild"
	SpicinessSpicy    Spiciness = "spicy"
	SpicinessExplicit Spiciness = "explicit"
)

// Preferences is a sparse, patchable document. Nil fields mean "unset";
// updates are partial merges, never full replacements.
type Preferences struct {
	WhatsAppPhone     *string        `json:"whatsapp_phone,omitempty"`
	PreferredPlatform *Platform      `json:"preferred_platform,omitempty"`
	SpicinessLevel    *Spiciness     `json:"spiciness_level,omitempty"`
	ModeSwitchPhrase  *string        `json:"mode_switch_phrase,omitempty"`
	NotifPrefs        map[string]any `json:"notif_prefs,omitempty"`
}

// Merge returns a copy of p with every non-nil field of patch applied.
// Fields absent from the patch are never overwritten.
func (p Preferences) Merge(patch Preferences) Preferences {
	out := p
	if patch.WhatsAppPhone != nil {
		out.WhatsAppPhone = patch.WhatsAppPhone
	}
	if patch.PreferredPlatform != nil {
		out.PreferredPlatform = patch.PreferredPlatform
	}
	if patch.SpicinessLevel != nil {
		out.SpicinessLevel = patch.SpicinessLevel
	}
	if patch.ModeSwitchPhrase != nil {
		out.ModeSwitchPhrase = patch.ModeSwitchPhrase
	}
	if patch.NotifPrefs != nil {
		merged := make(map[string]any, len(p.NotifPrefs)+len(patch.NotifPrefs))
		for k, v := range p.NotifPrefs {
			merged[k] = v
		}
		for k, v := range patch.NotifPrefs {
			merged[k] = v
		}
		out.NotifPrefs = merged
	}
	return out
}

// Personas is the fixed set of selectable persona labels.
var Personas = []string{"playful", "dominant", "shy", "caring", "intellectual", "adventurous"}

// ValidPersona reports whether label is one of the fixed persona labels.
func ValidPersona(label string) bool {
	for _, p := range Personas {
		if p == label {
			return true
		}
	}
	return false
}
