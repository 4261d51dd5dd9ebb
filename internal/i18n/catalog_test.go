package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestEmbeddedCatalogsShareKeys(t *testing.T) {
	b := Default()
	supported := b.Supported()
	require.Len(t, supported, 2)
	assert.Equal(t, language.German, supported[0])

	de := b.Keys(language.German)
	en := b.Keys(language.English)
	assert.NotEmpty(t, de)
	assert.Equal(t, de, en)
}

func TestMatch(t *testing.T) {
	b := Default()

	assert.Equal(t, language.English, b.Match("en-US,en;q=0.9"))
	assert.Equal(t, language.German, b.Match("de-AT"))
	assert.Equal(t, language.German, b.Match("fr-FR"))
	assert.Equal(t, language.German, b.Match(""))
	assert.Equal(t, language.German, b.Match("%%%"))
}

func TestPrinterFormats(t *testing.T) {
	b := Default()

	de := b.Printer(language.German)
	assert.Equal(t, "Regen möglich (70%)", de.T("badge.rain", 70))
	assert.Equal(t, "Perfekt für 12°C in Berlin", de.T("stage.outfit.subtitle", 12, "Berlin"))
	assert.Equal(t, "Sonnig", de.T("condition.sunny"))

	en := b.Printer(language.English)
	assert.Equal(t, "Windy (25 km/h)", en.T("badge.wind", 25))
	assert.Equal(t, language.English, en.Tag())
}

func TestLoadFromFSRequiresDefaultLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  a: b\n")},
	}
	_, err := LoadFromFS(fsys)
	require.Error(t, err)
}

func TestLoadFromFSRejectsBadLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/de.yaml": {Data: []byte("locale: \"not a tag!\"\nmessages: {}\n")},
	}
	_, err := LoadFromFS(fsys)
	require.Error(t, err)
}

func TestLoadFromFSEmpty(t *testing.T) {
	_, err := LoadFromFS(fstest.MapFS{})
	require.Error(t, err)
}
