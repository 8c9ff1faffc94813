package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatOnline(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	f := NewFormatter(func() time.Time { return now })

	rec := records(t, `[{"xuid":"1","gamertag":"Foo","displayPicRaw":"https://img/1.png",
		"presenceState":"Online","presenceDeviceType":"Scarlett","presenceTitle":"Halo Infinite",
		"presenceDetail":"Playing Slayer","presenceText":"Online"}]`)[0]

	alert := f.Format(Transition{Identity: "1", Previous: "Offline", Current: "Online", Record: rec})

	require.Equal(t, "Foo", alert.DisplayName)
	require.Equal(t, "Scarlett - Halo Infinite - Playing Slayer", alert.Detail)
	require.Equal(t, 0x107C10, alert.Color)
	require.Equal(t, "https://img/1.png", alert.AvatarURL)
	require.Equal(t, now.UTC(), alert.Timestamp)
	require.Equal(t, "is now Online\nScarlett - Halo Infinite - Playing Slayer", alert.Description())
}

func TestFormatOffline(t *testing.T) {
	f := NewFormatter(nil)

	rec := records(t, `[{"xuid":"1","modernGamertag":"Bar","deviceType":"PC","titleName":"Forza"}]`)[0]
	alert := f.Format(Transition{Identity: "1", Previous: "Online", Current: "Offline", Record: rec})
	require.Equal(t, "Bar", alert.DisplayName)
	require.Equal(t, "PC - Forza", alert.Detail)
	require.Equal(t, 0x737373, alert.Color)

	bare := records(t, `[{"xuid":"2"}]`)[0]
	alert = f.Format(Transition{Identity: "2", Previous: "Online", Current: "Offline", Record: bare})
	require.Equal(t, UnknownPlayer, alert.DisplayName)
	require.Equal(t, "Unknown - No game", alert.Detail)
}

func TestDetailDropsDuplicates(t *testing.T) {
	rec := records(t, `[{"xuid":"1","deviceType":"Xbox","presenceTitle":"Home","presenceDetail":"home","presenceText":"Away"}]`)[0]
	require.Equal(t, "Xbox - Home", Detail(rec, "Away"))

	empty := records(t, `[{"xuid":"1"}]`)[0]
	require.Empty(t, Detail(empty, "Away"))
}

func TestDisplayNamePreference(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`[{"displayName":"D","gamertag":"G"}]`, "D"},
		{`[{"displayName":" ","gamertag":"G"}]`, "G"},
		{`[{"uniqueModernGamertag":"U#1","realName":"R"}]`, "U#1"},
		{`[{"realName":"R"}]`, "R"},
		{`[{}]`, UnknownPlayer},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DisplayName(records(t, tt.raw)[0]), tt.raw)
	}
}

func TestUnknownStateUsesDefaultColor(t *testing.T) {
	rec := records(t, `[{"xuid":"1"}]`)[0]
	alert := NewFormatter(nil).Format(Transition{Identity: "1", Previous: "Online", Current: "Busy", Record: rec})
	require.Equal(t, defaultColor, alert.Color)
}
