// Package i18n serves bot texts from YAML catalogs keyed by language.
//
// A catalog file holds one or more top-level language sections. Nested sections are
// flattened into dot-separated keys, so menu: {buy: ...} is looked up as "menu.buy".
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the storefront language.
const DefaultLanguage = "uz"

//go:embed locales/*.yaml
var embedded embed.FS

// Vars holds placeholder values for Tf. A placeholder is written {name}.
type Vars map[string]any

// Translator resolves texts by dot-separated key. A missing key resolves to itself.
type Translator interface {
	T(key string) string
	Tf(key string, vars Vars) string
	Lang() string
}

// Manager holds the messages of every loaded language.
type Manager struct {
	messages    map[string]map[string]string
	defaultLang string
}

// Load reads the catalogs compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: embedded locales: %w", err)
	}
	return LoadFS(sub, defaultLang)
}

// LoadFromDir reads the catalogs in dir, replacing the embedded ones.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	return LoadFS(os.DirFS(dir), defaultLang)
}

// LoadFS reads every .yaml or .yml file at the root of fsys. Later files override
// earlier ones key by key.
func LoadFS(fsys fs.FS, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}

	names, err := fs.Glob(fsys, "*.y*ml")
	if err != nil {
		return nil, fmt.Errorf("i18n: list catalogs: %w", err)
	}

	messages := make(map[string]map[string]string)
	for _, name := range names {
		if err := readCatalog(fsys, name, messages); err != nil {
			return nil, err
		}
	}

	if _, ok := messages[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}
	return &Manager{messages: messages, defaultLang: defaultLang}, nil
}

// Translator returns a translator for lang, or for the default language when lang is unknown.
func (m *Manager) Translator(lang string) Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := m.messages[lang]; !ok {
		lang = m.defaultLang
	}
	return translator{primary: m.messages[lang], fallback: m.messages[m.defaultLang], lang: lang}
}

// Languages returns the loaded language codes in order.
func (m *Manager) Languages() []string {
	languages := make([]string, 0, len(m.messages))
	for lang := range m.messages {
		languages = append(languages, lang)
	}
	slices.Sort(languages)
	return languages
}

type translator struct {
	primary  map[string]string
	fallback map[string]string
	lang     string
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	if value, ok := t.primary[key]; ok {
		return value
	}
	if value, ok := t.fallback[key]; ok {
		return value
	}
	return key
}

// Tf translates key and substitutes {name} placeholders from vars.
func (t translator) Tf(key string, vars Vars) string {
	text := t.T(key)
	if len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func readCatalog(fsys fs.FS, name string, into map[string]map[string]string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}

	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}

	for lang, tree := range sections {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if into[lang] == nil {
			into[lang] = make(map[string]string)
		}
		if err := flatten("", tree, into[lang]); err != nil {
			return fmt.Errorf("i18n: %s: %s: %w", name, lang, err)
		}
	}
	return nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) error {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[key] = v
		case map[string]any:
			if err := flatten(key, v, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %s: want text or section, got %T", key, value)
		}
	}
	return nil
}
