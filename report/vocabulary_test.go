package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyFor(t *testing.T) {
	t.Run("declared kinds have no duplicates and are stable", func(t *testing.T) {
		for _, k := range Kinds() {
			first, err := VocabularyFor(k)
			require.NoError(t, err)
			second, err := VocabularyFor(k)
			require.NoError(t, err)
			assert.Equal(t, first, second, "kind %s", k)

			seen := map[string]bool{}
			for _, tok := range first {
				assert.False(t, seen[tok], "kind %s repeats %q", k, tok)
				seen[tok] = true
			}
		}
	})

	t.Run("all is the ordered union of lighthouse and observatory", func(t *testing.T) {
		lh, err := VocabularyFor(KindLighthouse)
		require.NoError(t, err)
		obs, err := VocabularyFor(KindObservatory)
		require.NoError(t, err)
		all, err := VocabularyFor(KindAll)
		require.NoError(t, err)

		want := append([]string{}, lh...)
		for _, tok := range obs {
			if tok != "url" {
				want = append(want, tok)
			}
		}
		assert.Equal(t, want, all)
		assert.Equal(t, "url", all[0])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := VocabularyFor("pagespeed")
		require.ErrorIs(t, err, ErrUnknownReportKind)
	})

	t.Run("callers cannot corrupt the declaration", func(t *testing.T) {
		toks, err := VocabularyFor(KindObservatory)
		require.NoError(t, err)
		toks[0] = "mutated"
		again, err := VocabularyFor(KindObservatory)
		require.NoError(t, err)
		assert.Equal(t, "url", again[0])
	})
}

func TestDerivedUnion(t *testing.T) {
	saved := vocabularies
	t.Cleanup(func() { vocabularies = saved })

	vocabularies = map[Kind]vocabulary{
		"a":    Static{"url", "score"},
		"b":    Static{"url", "grade"},
		"ab":   Derived{"a", "b"},
		"bad":  Derived{"a", "missing"},
		"loop": Derived{"loop"},
	}

	got, err := VocabularyFor("ab")
	require.NoError(t, err)
	assert.Equal(t, []string{"url", "score", "grade"}, got)

	_, err = VocabularyFor("bad")
	assert.ErrorIs(t, err, ErrUnknownReportKind)

	_, err = VocabularyFor("loop")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("observatory")
	require.NoError(t, err)
	assert.Equal(t, KindObservatory, k)

	_, err = ParseKind("Observatory")
	assert.ErrorIs(t, err, ErrUnknownReportKind)
}
