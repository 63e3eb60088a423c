package persona

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog override format. Entries replace
// built-in entries with the same key and extend the catalog otherwise.
type File struct {
	Personalities []Profile `yaml:"personalities"`
	Tones         []Tone    `yaml:"tones"`
	Scenes        []Scene   `yaml:"scenes"`
}

// LoadCatalog reads a catalog override file and merges it over the
// built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("persona: catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog decodes a catalog override document and merges it over
// the built-in catalog. Unknown fields are rejected; an empty document
// yields the built-in catalog unchanged.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Builtin(), nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	cat := &Catalog{
		profiles: append([]Profile(nil), builtin.profiles...),
		tones:    append([]Tone(nil), builtin.tones...),
		scenes:   append([]Scene(nil), builtin.scenes...),
	}
	for _, p := range f.Personalities {
		cat.profiles = upsert(cat.profiles, p, func(v Profile) string { return v.Key })
	}
	for _, t := range f.Tones {
		cat.tones = upsert(cat.tones, t, func(v Tone) string { return v.Key })
	}
	for _, s := range f.Scenes {
		cat.scenes = upsert(cat.scenes, s, func(v Scene) string { return v.Key })
	}
	return cat, nil
}

func (f *File) validate() error {
	for i, p := range f.Personalities {
		if p.Key == "" {
			return fmt.Errorf("personality %d: missing key", i)
		}
		if p.Name == "" {
			return fmt.Errorf("personality %q: missing name", p.Key)
		}
		if p.HumorBaseline < humorMin || p.HumorBaseline > humorMax {
			return fmt.Errorf("personality %q: humor %d out of range [%d,%d]", p.Key, p.HumorBaseline, humorMin, humorMax)
		}
	}
	for i, t := range f.Tones {
		if t.Key == "" {
			return fmt.Errorf("tone %d: missing key", i)
		}
	}
	for i, s := range f.Scenes {
		if s.Key == "" {
			return fmt.Errorf("scene %d: missing key", i)
		}
	}
	return nil
}

func upsert[T any](list []T, v T, key func(T) string) []T {
	for i := range list {
		if key(list[i]) == key(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
