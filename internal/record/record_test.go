package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeepsFieldOrder(t *testing.T) {
	rec, err := Parse([]byte(`{"xuid":"1","zeta":1,"alpha":{"b":2,"a":1},"gamertag":"Ünïcode & co"}`))
	require.NoError(t, err)

	require.Equal(t, []string{"xuid", "zeta", "alpha", "gamertag"}, rec.Keys())
	require.Equal(t, "1", rec.Identity())
	require.Equal(t, "Ünïcode & co", rec.String("gamertag"))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Contains(t, string(out), `"alpha":{"b":2,"a":1}`)
}

func TestMarshalDoesNotEscape(t *testing.T) {
	rec := New()
	require.NoError(t, rec.SetValue("titleName", "Rock & Roll <Ω>"))

	out, err := rec.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"titleName":"Rock & Roll <Ω>"}`, string(out))
}

func TestSetReplacesInPlace(t *testing.T) {
	rec, err := Parse([]byte(`{"a":1,"b":2,"c":3}`))
	require.NoError(t, err)

	rec.Set("b", json.RawMessage(`"two"`))
	rec.Set("d", nil)

	require.Equal(t, []string{"a", "b", "c", "d"}, rec.Keys())
	require.Equal(t, "two", rec.String("b"))
	raw, ok := rec.Get("d")
	require.True(t, ok)
	require.JSONEq(t, `null`, string(raw))
}

func TestStringAccessor(t *testing.T) {
	rec, err := Parse([]byte(`{"s":"x","n":2533274800000001,"f":1.5,"null":null,"obj":{},"bool":true}`))
	require.NoError(t, err)

	require.Equal(t, "x", rec.String("s"))
	require.Equal(t, "2533274800000001", rec.String("n"))
	require.Equal(t, "1.5", rec.String("f"))
	require.Empty(t, rec.String("null"))
	require.Empty(t, rec.String("obj"))
	require.Empty(t, rec.String("bool"))
	require.Empty(t, rec.String("missing"))
}

func TestObjectAndArray(t *testing.T) {
	rec, err := Parse([]byte(`{"lastSeen":{"deviceType":"XboxOne","titleName":"Halo"},"devices":[{"type":"PC"},2],"str":"x"}`))
	require.NoError(t, err)

	ls := rec.Object("lastSeen")
	require.NotNil(t, ls)
	require.Equal(t, "Halo", ls.String("titleName"))
	require.Nil(t, rec.Object("str"))
	require.Nil(t, rec.Object("missing"))

	require.Len(t, rec.Array("devices"), 2)
	require.Nil(t, rec.Array("str"))
}

func TestCloneIsIndependent(t *testing.T) {
	rec, err := Parse([]byte(`{"a":1}`))
	require.NoError(t, err)

	cp := rec.Clone()
	cp.Set("b", json.RawMessage(`2`))
	cp.Delete("a")

	require.Equal(t, []string{"a"}, rec.Keys())
	require.Equal(t, []string{"b"}, cp.Keys())
}

func TestFromItemsSkipsNonObjects(t *testing.T) {
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`[{"xuid":"1"},"junk",3,null,{"xuid":"2"}]`), &items))

	records, skipped := FromItems(items)
	require.Len(t, records, 2)
	require.Equal(t, 3, skipped)
	require.Equal(t, "2", records[1].Identity())
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	_, err := Parse([]byte(`[1,2]`))
	require.Error(t, err)
}
