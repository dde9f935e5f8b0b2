// Package i18n renders localized messages for challenge error codes.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the fallback locale.
const BaseLocale = "en-US"

// Code is a machine-readable error code. It mirrors errors.Code as a plain
// string so this package stays import-free of its caller.
type Code = string

// Catalog holds parsed message templates for one locale.
type Catalog struct {
	locale    string
	templates map[Code]*template.Template
	raw       map[Code]string
}

type registry struct {
	mu       sync.RWMutex
	byLocale map[string]*Catalog
	tags     []language.Tag
	matcher  language.Matcher
}

var catalogs = newRegistry(
	NewCatalog(BaseLocale, enUSMessages),
	NewCatalog("pt-BR", ptBRMessages),
)

func newRegistry(initial ...*Catalog) *registry {
	r := &registry{byLocale: make(map[string]*Catalog, len(initial))}
	for _, cat := range initial {
		r.add(cat)
	}
	return r
}

func (r *registry) add(cat *Catalog) {
	r.byLocale[cat.locale] = cat
	if tag, err := language.Parse(cat.locale); err == nil {
		r.tags = append(r.tags, tag)
		r.matcher = language.NewMatcher(r.tags)
	}
}

func (r *registry) resolve(locale string) *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cat, ok := r.byLocale[locale]; ok {
		return cat
	}
	if tag, err := language.Parse(locale); err == nil && r.matcher != nil {
		_, index, confidence := r.matcher.Match(tag)
		if confidence != language.No {
			if cat, ok := r.byLocale[r.tags[index].String()]; ok {
				return cat
			}
		}
	}
	return r.byLocale[BaseLocale]
}

// GetCatalog returns the catalog registered for locale, the closest
// registered language match, or the en-US catalog.
func GetCatalog(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = BaseLocale
	}
	return catalogs.resolve(locale)
}

// RegisterCatalog adds or replaces the catalog for its locale.
func RegisterCatalog(cat *Catalog) {
	if cat == nil {
		return
	}
	catalogs.mu.Lock()
	defer catalogs.mu.Unlock()
	if _, exists := catalogs.byLocale[cat.locale]; exists {
		catalogs.byLocale[cat.locale] = cat
		return
	}
	catalogs.add(cat)
}

// NewCatalog parses messages once. A template that does not parse is kept
// as literal text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cat := &Catalog{
		locale:    locale,
		templates: make(map[Code]*template.Template, len(messages)),
		raw:       make(map[Code]string, len(messages)),
	}
	for code, text := range messages {
		cat.raw[code] = text
		if tmpl, err := template.New(code).Parse(text); err == nil {
			cat.templates[code] = tmpl
		}
	}
	return cat
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code with metadata. Unknown codes render as
// the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, metadata); err != nil {
		return text
	}
	return out.String()
}
