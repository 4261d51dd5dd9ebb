// Package i18n loads the embedded message catalogs and picks a language per
// request.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the source language of the catalogs and the fallback for
// unmatched requests.
const DefaultLocale = "de"

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

type Bundle struct {
	builder   *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
	keys      map[language.Tag]map[string]struct{}
}

var defaultBundle = mustLoadEmbedded()

func Default() *Bundle {
	return defaultBundle
}

func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	defaultTag := language.MustParse(DefaultLocale)
	b := &Bundle{
		builder: catalog.NewBuilder(catalog.Fallback(defaultTag)),
		keys:    map[language.Tag]map[string]struct{}{},
	}

	for _, path := range paths {
		data, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}

		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}

		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: invalid locale %q: %w", path, file.Locale, err)
		}

		if b.keys[tag] == nil {
			b.keys[tag] = map[string]struct{}{}
			b.supported = append(b.supported, tag)
		}
		for key, msg := range file.Messages {
			if err := b.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: key %s: %w", path, key, err)
			}
			b.keys[tag][key] = struct{}{}
		}
	}

	if _, ok := b.keys[defaultTag]; !ok {
		return nil, fmt.Errorf("default locale %s has no catalog", DefaultLocale)
	}

	// The matcher falls back to its first tag.
	sort.SliceStable(b.supported, func(i, j int) bool {
		return b.supported[i] == defaultTag && b.supported[j] != defaultTag
	})
	b.matcher = language.NewMatcher(b.supported)

	return b, nil
}

func mustLoadEmbedded() *Bundle {
	b, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) Supported() []language.Tag {
	out := make([]language.Tag, len(b.supported))
	copy(out, b.supported)
	return out
}

// Match picks the best supported tag for an Accept-Language header value.
func (b *Bundle) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.supported[0]
	}
	_, idx, _ := b.matcher.Match(tags...)
	return b.supported[idx]
}

// Has reports whether key is translated for tag.
func (b *Bundle) Has(tag language.Tag, key string) bool {
	_, ok := b.keys[tag][key]
	return ok
}

func (b *Bundle) Keys(tag language.Tag) []string {
	keys := make([]string, 0, len(b.keys[tag]))
	for k := range b.keys[tag] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Printer struct {
	tag language.Tag
	p   *message.Printer
}

func (b *Bundle) Printer(tag language.Tag) *Printer {
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(b.builder))}
}

func (p *Printer) Tag() language.Tag {
	return p.tag
}

// T renders the message for key with printf-style arguments.
func (p *Printer) T(key string, args ...interface{}) string {
	return p.p.Sprintf(key, args...)
}
