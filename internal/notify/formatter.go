package notify

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/presencewatch/internal/merge"
	"git.home.luguber.info/inful/presencewatch/internal/record"
)

// UnknownPlayer is shown when a record carries no usable name.
const UnknownPlayer = "Unknown player"

const (
	unknownDevice = "Unknown"
	noGame        = "No game"
)

// displayNameFields lists name fields in order of preference.
var displayNameFields = []string{"displayName", "modernGamertag", "gamertag", "uniqueModernGamertag", "realName"}

var stateColors = map[string]int{
	"Online":  0x107C10,
	"Away":    0xFFB900,
	"Offline": 0x737373,
}

const defaultColor = 0x5865F2

// Alert is a formatted notification for one transition.
type Alert struct {
	Identity      string
	DisplayName   string
	State         string
	PreviousState string
	Detail        string
	Color         int
	AvatarURL     string
	Timestamp     time.Time
}

// Description is the body line shared by the text based senders.
func (a Alert) Description() string {
	if a.Detail == "" {
		return "is now " + a.State
	}
	return "is now " + a.State + "\n" + a.Detail
}

// Formatter turns transitions into alerts.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a formatter stamping alerts with now(); nil means time.Now.
func NewFormatter(now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{now: now}
}

// Format builds the alert for t.
func (f *Formatter) Format(t Transition) Alert {
	color, ok := stateColors[t.Current]
	if !ok {
		color = defaultColor
	}
	return Alert{
		Identity:      t.Identity,
		DisplayName:   DisplayName(t.Record),
		State:         t.Current,
		PreviousState: t.Previous,
		Detail:        Detail(t.Record, t.Current),
		Color:         color,
		AvatarURL:     t.Record.String("displayPicRaw"),
		Timestamp:     f.now().UTC(),
	}
}

// DisplayName returns the first non-empty preferred name field.
func DisplayName(r *record.Record) string {
	for _, key := range displayNameFields {
		if v := strings.TrimSpace(r.String(key)); v != "" {
			return v
		}
	}
	return UnknownPlayer
}

// Detail describes what the player is doing. Online and Away combine device, title and
// rich presence without repeating values or the state itself; Offline names the device
// and the last title played.
func Detail(r *record.Record, state string) string {
	if state == "Offline" {
		device := firstNonEmpty(r.String(merge.FieldDeviceType), unknownDevice)
		title := firstNonEmpty(r.String(merge.FieldTitleName), noGame)
		return device + " - " + title
	}

	candidates := []string{
		firstNonEmpty(r.String(merge.FieldPresenceDeviceType), r.String(merge.FieldDeviceType)),
		r.String(merge.FieldPresenceTitle),
		r.String(merge.FieldPresenceDetail),
		r.String("presenceText"),
	}
	seen := map[string]bool{strings.ToLower(state): true}
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, c)
	}
	return strings.Join(parts, " - ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
