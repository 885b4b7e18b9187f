package dictionary

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeYoruba(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[.E']po", "&#7864;&#x0301;po"},
		{"[.e`]ja", "&#7865;&#x0300;ja"},
		{"[.o]w[.o']", "&#7885;w&#7885;&#x0301;"},
		{"[.S]ango", "&#7778;ango"},
		{"[-e]de", "&e;de"}, // too short for an accent to be read
		{"[-a+]ja", "&aacute;ja"},
		{"il[-e+]", "il&eacute;"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EncodeYoruba(tc.in), "input %q", tc.in)
	}
}

func TestLoadBuildsBijection(t *testing.T) {
	fsys := fstest.MapFS{
		"animals.txt": {Data: []byte("Animals\ndog,aja\ncat,ologbo\n")},
		"numbers.txt": {Data: []byte("Numbers\none,okan\ntwo,eji\n,missing\nempty,\n")},
	}

	d, err := Load(fsys)
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"Animals", "Numbers"}, d.Categories())
	require.Len(t, d.WordsOf("Animals"), 2)
	require.Len(t, d.WordsOf("Numbers"), 2, "half-empty entries are skipped")

	for _, category := range d.Categories() {
		for _, pair := range d.WordsOf(category) {
			got, ok := d.Lookup(pair.English)
			require.True(t, ok)
			assert.Equal(t, pair.Yoruba, got)

			got, ok = d.Lookup(pair.Yoruba)
			require.True(t, ok)
			assert.Equal(t, pair.English, got)

			assert.True(t, d.IsPair(pair.English, pair.Yoruba))
			assert.True(t, d.IsPair(pair.Yoruba, pair.English))
		}
	}

	assert.False(t, d.IsPair("dog", "okan"))
}

func TestLoadRejectsEmptyInput(t *testing.T) {
	_, err := Load(fstest.MapFS{})
	require.Error(t, err)

	_, err = Load(fstest.MapFS{"bad.txt": {Data: []byte("")}})
	require.Error(t, err)
}
