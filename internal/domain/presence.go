package domain

import "strings"

// PresenceStatus is the online status shown for the bot account.
type PresenceStatus string

const (
	StatusOnline    PresenceStatus = "online"
	StatusIdle      PresenceStatus = "idle"
	StatusDND       PresenceStatus = "dnd"
	StatusInvisible PresenceStatus = "invisible"
	StatusOffline   PresenceStatus = "offline"
)

// Presence is the status and "Playing ..." activity text of the bot.
type Presence struct {
	Status   PresenceStatus `json:"status"`
	Activity string         `json:"activity,omitempty"`
}

// DefaultPresence is published as soon as the gateway reports Ready.
func DefaultPresence() Presence {
	return Presence{Status: StatusOnline, Activity: "online"}
}

// ParsePresenceStatus maps free-form user input to a status. Unknown or
// empty input maps to online.
func ParsePresenceStatus(s string) PresenceStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle":
		return StatusIdle
	case "dnd", "donotdisturb", "do_not_disturb":
		return StatusDND
	case "invisible":
		return StatusInvisible
	case "offline":
		return StatusOffline
	default:
		return StatusOnline
	}
}
