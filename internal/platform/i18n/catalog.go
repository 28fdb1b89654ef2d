// Package i18n provides message lookup from TOML locale catalogs.
//
// Catalogs are nested TOML tables flattened to dotted keys:
//
//	[errors]
//	internet = "No internet connection."
//
// resolves under the key "errors.internet". Lookups fall back to the default
// locale, then to the key itself, so a missing translation never yields an
// empty message.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// FallbackLocale is consulted when the active locale lacks a key.
const FallbackLocale = "en"

//go:embed locales/*.toml
var embedded embed.FS

// ErrUnknownLocale is returned when selecting a locale with no catalog.
var ErrUnknownLocale = errors.New("unknown locale")

// Catalog holds flattened messages per locale. Safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	locale   string
	messages map[string]map[string]string
}

// New loads the embedded catalogs and, when dir is non-empty, overlays every
// <locale>.toml found there. The active locale is set to locale.
func New(locale, dir string) (*Catalog, error) {
	c := &Catalog{messages: make(map[string]map[string]string)}

	if err := c.loadFS(embedded, "locales"); err != nil {
		return nil, fmt.Errorf("loading embedded locales: %w", err)
	}

	if dir != "" {
		if err := c.loadFS(os.DirFS(dir), "."); err != nil {
			return nil, fmt.Errorf("loading locales from %s: %w", dir, err)
		}
	}

	if err := c.SetLocale(locale); err != nil {
		return nil, err
	}

	return c, nil
}

// Lookup returns the message for key in the active locale.
func (c *Catalog) Lookup(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msg, ok := c.messages[c.locale][key]; ok {
		return msg
	}

	if msg, ok := c.messages[FallbackLocale][key]; ok {
		return msg
	}

	return key
}

// SetLocale switches the active locale.
func (c *Catalog) SetLocale(locale string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.messages[locale]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}

	c.locale = locale

	return nil
}

// Locale returns the active locale.
func (c *Catalog) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.locale
}

// Locales returns the loaded locale names in sorted order.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.messages))
	for l := range c.messages {
		out = append(out, l)
	}
	sort.Strings(out)

	return out
}

// loadFS decodes every *.toml under root and merges it into the catalog.
func (c *Catalog) loadFS(fsys fs.FS, root string) error {
	paths, err := fs.Glob(fsys, path.Join(root, "*.toml"))
	if err != nil {
		return err
	}

	for _, p := range paths {
		var raw map[string]any
		if _, err := toml.DecodeFS(fsys, p, &raw); err != nil {
			return fmt.Errorf("decoding %s: %w", p, err)
		}

		locale := strings.TrimSuffix(path.Base(p), ".toml")
		msgs := c.messages[locale]
		if msgs == nil {
			msgs = make(map[string]string)
			c.messages[locale] = msgs
		}
		flatten("", raw, msgs)
	}

	return nil
}

// flatten writes string leaves of tree into out under dotted keys.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		}
	}
}
