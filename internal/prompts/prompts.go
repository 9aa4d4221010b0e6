// Package prompts holds the prompt text sent to the content generator.
// Prompt files are JSON objects of key to text, embedded at compile time;
// text may reference {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// Adaptation is the prompt file used by content adaptation
const Adaptation = "adaptation.json"

// Keys every adaptation prompt file defines
const (
	KeySystem = "system"
	KeyAdapt  = "adapt"
	KeyFix    = "fix"
)

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Set is one parsed prompt file
type Set struct {
	name    string
	entries map[string]string
}

// Load parses an embedded prompt file
func Load(name string) (*Set, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
	}
	return Parse(name, data)
}

// Parse builds a Set from raw JSON
func Parse(name string, data []byte) (*Set, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
	}
	return &Set{name: name, entries: entries}, nil
}

var adaptation = sync.OnceValues(func() (*Set, error) {
	return Load(Adaptation)
})

// AdaptationSet returns the embedded adaptation prompts. It panics if the
// embedded file is unreadable, which only a broken build can cause.
func AdaptationSet() *Set {
	s, err := adaptation()
	if err != nil {
		panic(err)
	}
	return s
}

// Name is the file the set was loaded from
func (s *Set) Name() string { return s.name }

// Keys lists the prompt keys, sorted
func (s *Set) Keys() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// Get returns the raw text for key
func (s *Set) Get(key string) (string, error) {
	text, ok := s.entries[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.name)
	}
	return text, nil
}

// Render substitutes data into the prompt for key in one pass; substituted
// values are never rescanned. Every placeholder must have a value.
func (s *Set) Render(key string, data map[string]string) (string, error) {
	text, err := s.Get(key)
	if err != nil {
		return "", err
	}

	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := data[name]
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q in %s is missing values for %s", key, s.name, strings.Join(missing, ", "))
	}
	return out, nil
}

// MustRender is Render for prompts whose placeholders are fixed at compile time
func (s *Set) MustRender(key string, data map[string]string) string {
	out, err := s.Render(key, data)
	if err != nil {
		panic(err)
	}
	return out
}

// Describe returns the description stored under "<kind>-<label slug>", such
// as "persona-business-leader", or "" when there is none.
func (s *Set) Describe(kind, label string) string {
	return s.entries[Slug(kind, label)]
}

// Slug builds a description key from a kind and a display label
func Slug(kind, label string) string {
	return kind + "-" + strings.Join(strings.Fields(strings.ToLower(label)), "-")
}

// Placeholders lists the distinct placeholder names in text, sorted
func Placeholders(text string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	slices.Sort(names)
	return names
}
