package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/presencewatch/internal/record"
)

func parseAll(t *testing.T, raw string) []*record.Record {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	recs, _ := record.FromItems(items)
	return recs
}

var policy = InsertionPolicy{Marker: "isXbox360Gamerpic"}

func TestMissingStateDefaultsToOffline(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1","gamertag":"Foo"}]`)
	presence := parseAll(t, `[{"xuid":"1","lastSeen":{"titleName":"Halo"}}]`)

	merged := Merge(accounts, presence, policy)
	require.Len(t, merged, 1)
	require.Equal(t, "Offline", merged[0].String(FieldPresenceState))
	require.Equal(t, "Halo", merged[0].String(FieldTitleName))
}

func TestInsertionAfterMarker(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1","gamertag":"Foo","isXbox360Gamerpic":false,"realName":"F","lastSeenDateTimeUtc":"old"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Offline","lastSeen":{"deviceType":"Scarlett","titleId":"123","titleName":"Forza","timestamp":"2024-05-01T10:00:00Z"}}]`)

	merged := Merge(accounts, presence, policy)
	require.Len(t, merged, 1)
	rec := merged[0]

	require.Equal(t, []string{
		"xuid", "gamertag", "isXbox360Gamerpic",
		"presenceState", "deviceType", "titleId", "titleName",
		"realName", "lastSeenDateTimeUtc",
	}, rec.Keys())
	require.Equal(t, "2024-05-01T10:00:00Z", rec.String(FieldLastSeen))
	require.Equal(t, "Scarlett", rec.String(FieldDeviceType))
}

func TestAppendWhenMarkerAbsent(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1","gamertag":"Foo"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Away","lastSeen":{"deviceType":"PC","timestamp":"t"}}]`)

	rec := Merge(accounts, presence, policy)[0]
	require.Equal(t, []string{"xuid", "gamertag", "presenceState", "deviceType", "titleId", "titleName", "lastSeenDateTimeUtc"}, rec.Keys())

	titleID, ok := rec.Get(FieldTitleID)
	require.True(t, ok)
	require.Equal(t, "null", string(titleID))
}

func TestOnlineFields(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1","isXbox360Gamerpic":false}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Online","devices":[{"type":"XboxSeriesX","titles":[{"id":"1","name":"Halo Infinite","activity":{"richPresence":"Playing Slayer"}}]}]}]`)

	rec := Merge(accounts, presence, policy)[0]
	require.Equal(t, []string{"xuid", "isXbox360Gamerpic", "presenceState", "presenceDevices", "presenceDeviceType", "presenceTitle", "presenceDetail"}, rec.Keys())
	require.Equal(t, "XboxSeriesX", rec.String(FieldPresenceDeviceType))
	require.Equal(t, "Halo Infinite", rec.String(FieldPresenceTitle))
	require.Equal(t, "Playing Slayer", rec.String(FieldPresenceDetail))
	require.Len(t, rec.Array(FieldPresenceDevices), 1)
}

func TestDevicesIgnoredWhenNotOnline(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Away","devices":[{"type":"PC","titles":[]}]}]`)

	rec := Merge(accounts, presence, policy)[0]
	require.Equal(t, []string{"xuid", "presenceState"}, rec.Keys())
}

func TestOnlineWithoutTitles(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Online","devices":[{"type":"Android"}]}]`)

	rec := Merge(accounts, presence, policy)[0]
	require.Equal(t, []string{"xuid", "presenceState", "presenceDevices", "presenceDeviceType"}, rec.Keys())
}

func TestJoinSemantics(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"2","gamertag":"B"},{"gamertag":"no id"},{"xuid":"1","gamertag":"A"},{"xuid":"3"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Online"},{"state":"Online"},{"xuid":"9","state":"Away"},{"xuid":"2","state":"Away"},{"xuid":"2","state":"Offline"}]`)

	merged := Merge(accounts, presence, policy)
	require.Len(t, merged, 3)

	ids := []string{merged[0].Identity(), merged[1].Identity(), merged[2].Identity()}
	require.Equal(t, []string{"2", "1", "3"}, ids)
	require.Equal(t, "Offline", merged[0].String(FieldPresenceState), "later presence record wins")
	require.Equal(t, "Online", merged[1].String(FieldPresenceState))
	require.False(t, merged[2].Has(FieldPresenceState), "no presence means no enrichment")
}

func TestMergeDoesNotMutateAccounts(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1","lastSeenDateTimeUtc":"old"}]`)
	presence := parseAll(t, `[{"xuid":"1","lastSeen":{"timestamp":"new"}}]`)

	merged := Merge(accounts, presence, policy)
	require.Equal(t, "new", merged[0].String(FieldLastSeen))
	require.Equal(t, "old", accounts[0].String(FieldLastSeen))
	require.Equal(t, []string{"xuid", "lastSeenDateTimeUtc"}, accounts[0].Keys())
}

func TestEmptyLastSeenIsIgnored(t *testing.T) {
	accounts := parseAll(t, `[{"xuid":"1"}]`)
	presence := parseAll(t, `[{"xuid":"1","state":"Offline","lastSeen":{}}]`)

	rec := Merge(accounts, presence, policy)[0]
	require.Equal(t, []string{"xuid", "presenceState"}, rec.Keys())
}

func TestNilInputs(t *testing.T) {
	require.Empty(t, Merge(nil, nil, policy))
	require.Len(t, Merge([]*record.Record{nil}, []*record.Record{nil}, policy), 0)
}
