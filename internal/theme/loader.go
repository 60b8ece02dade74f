package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceUser    Source = "user"
)

type Format string

const (
	FormatBuiltin Format = "builtin"
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
)

const (
	KeyDefault = "default"
	KeyPlain   = "plain"
)

type Definition struct {
	Key         string
	DisplayName string
	Metadata    Metadata
	Theme       Theme
	Source      Source
	Format      Format
	Path        string
}

// Catalog keeps builtins first, then user themes sorted by display name.
type Catalog struct {
	order []Definition
	index map[string]int
}

func (c Catalog) All() []Definition {
	out := make([]Definition, len(c.order))
	copy(out, c.order)
	return out
}

func (c Catalog) Keys() []string {
	keys := make([]string, len(c.order))
	for i, def := range c.order {
		keys[i] = def.Key
	}
	return keys
}

func (c Catalog) Get(key string) (Definition, bool) {
	idx, ok := c.index[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Definition{}, false
	}
	return c.order[idx], true
}

// Resolve returns the named theme, or the default one when key is blank or unknown.
func (c Catalog) Resolve(key string) Theme {
	if def, ok := c.Get(key); ok {
		return def.Theme
	}
	if def, ok := c.Get(KeyDefault); ok {
		return def.Theme
	}
	return DefaultTheme()
}

func (c *Catalog) add(def Definition) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[def.Key] = len(c.order)
	c.order = append(c.order, def)
}

func builtins() []Definition {
	return []Definition{
		{
			Key:         KeyDefault,
			DisplayName: "Default",
			Metadata:    Metadata{Name: "Default"},
			Theme:       DefaultTheme(),
			Source:      SourceBuiltin,
			Format:      FormatBuiltin,
		},
		{
			Key:         KeyPlain,
			DisplayName: "Plain",
			Metadata:    Metadata{Name: "Plain", Description: "No colors"},
			Theme:       Plain(),
			Source:      SourceBuiltin,
			Format:      FormatBuiltin,
		},
	}
}

// LoadCatalog reads *.toml and *.json theme files from dirs. Missing dirs are
// skipped; broken files are reported while the rest still load.
func LoadCatalog(dirs []string) (Catalog, error) {
	base := DefaultTheme()
	used := map[string]bool{KeyDefault: true, KeyPlain: true}
	var user []Definition
	var combinedErr error

	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			combinedErr = errors.Join(
				combinedErr,
				fmt.Errorf("themes: read directory %q: %w", dir, err),
			)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			var format Format
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".toml":
				format = FormatTOML
			case ".json":
				format = FormatJSON
			default:
				continue
			}
			path := filepath.Join(dir, entry.Name())
			def, err := loadUserTheme(path, format, base)
			if err != nil {
				combinedErr = errors.Join(combinedErr, fmt.Errorf("themes: load %q: %w", path, err))
				continue
			}
			def.Key = uniqueKey(def.Key, used)
			if def.DisplayName == "" {
				def.DisplayName = def.Key
			}
			user = append(user, def)
		}
	}

	sort.SliceStable(user, func(i, j int) bool {
		left := strings.ToLower(user[i].DisplayName)
		right := strings.ToLower(user[j].DisplayName)
		if left == right {
			return user[i].Key < user[j].Key
		}
		return left < right
	})

	var catalog Catalog
	for _, def := range builtins() {
		catalog.add(def)
	}
	for _, def := range user {
		catalog.add(def)
	}
	return catalog, combinedErr
}

func loadUserTheme(path string, format Format, base Theme) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	spec, err := decodeThemeSpec(data, format)
	if err != nil {
		return Definition{}, err
	}
	th, err := ApplySpec(base, spec)
	if err != nil {
		return Definition{}, err
	}

	meta := Metadata{}
	if spec.Metadata != nil {
		meta = *spec.Metadata
	}
	slug := slugify(meta.Name)
	if slug == "" {
		slug = slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return Definition{
		Key:         slug,
		DisplayName: strings.TrimSpace(meta.Name),
		Metadata:    meta,
		Theme:       th,
		Source:      SourceUser,
		Format:      format,
		Path:        path,
	}, nil
}

func decodeThemeSpec(data []byte, format Format) (ThemeSpec, error) {
	var spec ThemeSpec
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&spec); err != nil {
			return ThemeSpec{}, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &spec); err != nil {
			return ThemeSpec{}, err
		}
	default:
		return ThemeSpec{}, fmt.Errorf("decode: unsupported format %q", format)
	}
	return spec, nil
}

func uniqueKey(candidate string, used map[string]bool) string {
	key := candidate
	if key == "" {
		key = "theme"
	}
	if !used[key] {
		used[key] = true
		return key
	}
	for n := 2; ; n++ {
		next := fmt.Sprintf("%s-%d", key, n)
		if !used[next] {
			used[next] = true
			return next
		}
	}
}

func slugify(name string) string {
	var builder strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash {
				builder.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
