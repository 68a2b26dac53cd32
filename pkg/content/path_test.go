package content

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func sameMap(a, b interface{}) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func heroRecord() Record {
	return Record{
		"title": "Welcome",
		"visual": map[string]interface{}{
			"image": "/uploads/hero.png",
			"floatingCard": map[string]interface{}{
				"title": "Old",
				"value": "42",
			},
			"badge": map[string]interface{}{"label": "New"},
		},
		"cta":  map[string]interface{}{"label": "Start", "href": "/signup"},
		"tags": []interface{}{"a", "b"},
	}
}

func TestSetPathReadsBack(t *testing.T) {
	t.Parallel()

	paths := []string{"title", "visual.floatingCard.title", "cta.label", "brand.new.deep.field"}
	for _, p := range paths {
		out := SetPath(heroRecord(), p, "updated")
		got, ok := GetPath(out, p)
		require.True(t, ok, p)
		require.Equal(t, "updated", got, p)
	}
}

func TestSetPathSharesSiblings(t *testing.T) {
	t.Parallel()

	in := heroRecord()
	out := SetPath(in, "visual.floatingCard.title", "New")

	require.True(t, sameMap(in["cta"], out["cta"]))
	require.True(t, sameMap(in["tags"], out["tags"]))
	inVisual := in["visual"].(map[string]interface{})
	outVisual := out["visual"].(map[string]interface{})
	require.False(t, sameMap(inVisual, outVisual))
	require.True(t, sameMap(inVisual["badge"], outVisual["badge"]))
	require.False(t, sameMap(inVisual["floatingCard"], outVisual["floatingCard"]))
}

func TestSetPathDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := heroRecord()
	before := CloneRecord(in)
	_ = SetPath(in, "visual.floatingCard.title", "New")
	_ = SetPath(in, "cta.extra.x", 1)
	require.Equal(t, before, in)
}

func TestSetPathReplacesNonObjectIntermediate(t *testing.T) {
	t.Parallel()

	in := Record{"title": "plain string"}
	out := SetPath(in, "title.main", "x")
	require.Equal(t, map[string]interface{}{"main": "x"}, out["title"])
	require.Equal(t, "plain string", in["title"])
}

func TestSetPathMalformedPaths(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "visual.", ".title", "a..b"} {
		in := heroRecord()
		out := SetPath(in, p, "x")
		require.Equal(t, in, out, p)
		require.False(t, sameMap(in, out), p)
	}
}

func TestSetPathNilRecord(t *testing.T) {
	t.Parallel()

	out := SetPath(nil, "a.b", true)
	got, ok := GetPath(out, "a.b")
	require.True(t, ok)
	require.Equal(t, true, got)
}

func TestGetPathMissing(t *testing.T) {
	t.Parallel()

	_, ok := GetPath(heroRecord(), "visual.nope.title")
	require.False(t, ok)
	_, ok = GetPath(heroRecord(), "title.length")
	require.False(t, ok)
	_, ok = GetPath(nil, "title")
	require.False(t, ok)
}
