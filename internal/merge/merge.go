// Package merge joins account records with presence records into the merged records that
// are persisted and diffed.
package merge

import (
	"bytes"
	"encoding/json"

	"git.home.luguber.info/inful/presencewatch/internal/record"
)

// Enrichment field names, in insertion order.
const (
	FieldPresenceState      = "presenceState"
	FieldPresenceDevices    = "presenceDevices"
	FieldPresenceDeviceType = "presenceDeviceType"
	FieldPresenceTitle      = "presenceTitle"
	FieldPresenceDetail     = "presenceDetail"
	FieldDeviceType         = "deviceType"
	FieldTitleID            = "titleId"
	FieldTitleName          = "titleName"
	FieldLastSeen           = "lastSeenDateTimeUtc"
)

// StateOnline is the only state that carries the live device list.
const StateOnline = "Online"

// DefaultState is used when a matched presence record has no state.
const DefaultState = "Offline"

// InsertionPolicy decides where enrichment fields land in a merged record.
//
// Enrichment keys the account already has are replaced in place. The remaining keys go in
// one block directly after Marker when the account has that field, otherwise after the last
// account field.
type InsertionPolicy struct {
	Marker string
}

type field struct {
	key   string
	value json.RawMessage
}

// Merge returns one record per account with an identity, in account order. Accounts are
// cloned, never mutated. Presence records without an identity are ignored; when an identity
// appears twice in presence the later record wins. Presence-only identities are dropped.
func Merge(accounts, presences []*record.Record, policy InsertionPolicy) []*record.Record {
	lookup := make(map[string]*record.Record, len(presences))
	for _, p := range presences {
		if p == nil {
			continue
		}
		if id := p.Identity(); id != "" {
			lookup[id] = p
		}
	}

	merged := make([]*record.Record, 0, len(accounts))
	for _, account := range accounts {
		if account == nil || account.Identity() == "" {
			continue
		}
		presence, ok := lookup[account.Identity()]
		if !ok {
			merged = append(merged, account.Clone())
			continue
		}
		merged = append(merged, apply(account, enrichment(presence), policy))
	}
	return merged
}

// enrichment derives the fields a presence record contributes to its account.
func enrichment(presence *record.Record) []field {
	state := presence.String("state")
	if state == "" {
		state = DefaultState
	}
	fields := []field{{FieldPresenceState, quote(state)}}

	if state == StateOnline {
		fields = append(fields, onlineFields(presence)...)
	}

	if lastSeen := presence.Object("lastSeen"); lastSeen != nil && lastSeen.Len() > 0 {
		fields = append(fields,
			field{FieldDeviceType, valueOrNull(lastSeen, "deviceType")},
			field{FieldTitleID, valueOrNull(lastSeen, "titleId")},
			field{FieldTitleName, valueOrNull(lastSeen, "titleName")},
		)
		if ts, ok := lastSeen.Get("timestamp"); ok {
			fields = append(fields, field{FieldLastSeen, ts})
		}
	}
	return fields
}

func onlineFields(presence *record.Record) []field {
	devices := presence.Array("devices")
	if len(devices) == 0 {
		return nil
	}
	raw, _ := presence.Get("devices")
	fields := []field{{FieldPresenceDevices, raw}}

	device, err := record.Parse(devices[0])
	if err != nil {
		return fields
	}
	if t := device.String("type"); t != "" {
		fields = append(fields, field{FieldPresenceDeviceType, quote(t)})
	}
	titles := device.Array("titles")
	if len(titles) == 0 {
		return fields
	}
	title, err := record.Parse(titles[0])
	if err != nil {
		return fields
	}
	if name := title.String("name"); name != "" {
		fields = append(fields, field{FieldPresenceTitle, quote(name)})
	}
	if activity := title.Object("activity"); activity != nil {
		if detail := activity.String("richPresence"); detail != "" {
			fields = append(fields, field{FieldPresenceDetail, quote(detail)})
		}
	}
	return fields
}

func apply(account *record.Record, fields []field, policy InsertionPolicy) *record.Record {
	replace := make(map[string]json.RawMessage)
	pending := make([]field, 0, len(fields))
	for _, f := range fields {
		if account.Has(f.key) {
			replace[f.key] = f.value
		} else {
			pending = append(pending, f)
		}
	}

	out := record.New()
	inserted := len(pending) == 0
	account.Each(func(key string, value json.RawMessage) {
		if v, ok := replace[key]; ok {
			value = v
		}
		out.Set(key, value)
		if !inserted && policy.Marker != "" && key == policy.Marker {
			for _, f := range pending {
				out.Set(f.key, f.value)
			}
			inserted = true
		}
	})
	if !inserted {
		for _, f := range pending {
			out.Set(f.key, f.value)
		}
	}
	return out
}

func valueOrNull(r *record.Record, key string) json.RawMessage {
	if v, ok := r.Get(key); ok {
		return v
	}
	return json.RawMessage("null")
}

func quote(s string) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
