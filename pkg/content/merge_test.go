package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func faqDefaults() Record {
	return Record{
		"title":    "Frequently asked questions",
		"subtitle": "",
		"visible":  true,
		"layout": map[string]interface{}{
			"columns": float64(2),
			"theme":   "light",
		},
		"items": []interface{}{
			map[string]interface{}{"id": "1", "question": "", "answer": ""},
		},
	}
}

func keySets(t *testing.T, got, want map[string]interface{}) {
	t.Helper()
	require.Len(t, got, len(want))
	for k, wv := range want {
		gv, ok := got[k]
		require.True(t, ok, "missing key %q", k)
		if wm, ok := wv.(map[string]interface{}); ok {
			gm, ok := gv.(map[string]interface{})
			require.True(t, ok, "key %q is not an object", k)
			keySets(t, gm, wm)
		}
	}
}

func TestMergeNilLoadedReturnsDefaults(t *testing.T) {
	t.Parallel()

	d := faqDefaults()
	require.True(t, sameMap(d, MergeWithDefaults(nil, d)))
}

func TestMergeFillsGaps(t *testing.T) {
	t.Parallel()

	loaded := Record{
		"title":  "Questions",
		"layout": map[string]interface{}{"columns": float64(3)},
		"legacy": "dropped",
	}
	got := MergeWithDefaults(loaded, faqDefaults())

	require.Equal(t, "Questions", got["title"])
	require.Equal(t, "", got["subtitle"])
	require.Equal(t, true, got["visible"])
	require.Equal(t, map[string]interface{}{"columns": float64(3), "theme": "light"}, got["layout"])
	require.NotContains(t, got, "legacy")
	keySets(t, got, faqDefaults())
}

func TestMergeBlankStringsFallBack(t *testing.T) {
	t.Parallel()

	loaded := Record{"title": "   "}
	got := MergeWithDefaults(loaded, faqDefaults())
	require.Equal(t, "Frequently asked questions", got["title"])

	got = MergeWithDefaults(loaded, faqDefaults(), KeepEmptyStrings())
	require.Equal(t, "   ", got["title"])
}

func TestMergeFalseAndZeroAreValues(t *testing.T) {
	t.Parallel()

	loaded := Record{"visible": false, "layout": map[string]interface{}{"columns": float64(0)}}
	got := MergeWithDefaults(loaded, faqDefaults())
	require.Equal(t, false, got["visible"])
	require.Equal(t, float64(0), got["layout"].(map[string]interface{})["columns"])
}

func TestMergeArraysAreAtomic(t *testing.T) {
	t.Parallel()

	stored := []interface{}{
		map[string]interface{}{"id": "7", "question": "Why?"},
	}
	got := MergeWithDefaults(Record{"items": stored}, faqDefaults())
	require.True(t, sameMap(stored, got["items"]))
	// no per-element backfill of "answer"
	require.NotContains(t, got["items"].([]interface{})[0], "answer")

	got = MergeWithDefaults(Record{"items": []interface{}{}}, faqDefaults())
	require.Equal(t, faqDefaults()["items"], got["items"])
}

func TestMergeNonObjectOverObjectUsesDefault(t *testing.T) {
	t.Parallel()

	got := MergeWithDefaults(Record{"layout": "grid"}, faqDefaults())
	require.Equal(t, faqDefaults()["layout"], got["layout"])
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	d := faqDefaults()
	loaded := Record{
		"title":    "",
		"subtitle": "Sub",
		"layout":   map[string]interface{}{"theme": "dark", "extra": 1},
		"items":    []interface{}{map[string]interface{}{"id": "2"}},
	}
	once := MergeWithDefaults(loaded, d)
	twice := MergeWithDefaults(once, d)
	require.Equal(t, once, twice)
	keySets(t, twice, d)
}

func TestNormalizeDecodedTrees(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := map[string]interface{}{
		"count": 3,
		"tags":  []string{"a", "b"},
		"nested": map[interface{}]interface{}{
			"when": ts,
			1:      "one",
		},
	}
	got := NormalizeRecord(in)
	require.Equal(t, Record{
		"count": float64(3),
		"tags":  []interface{}{"a", "b"},
		"nested": map[string]interface{}{
			"when": "2025-03-01T12:00:00Z",
			"1":    "one",
		},
	}, got)
}
