// Package prompts holds the text templates sent to the generative model.
// The built-in set is embedded; a JSON file on disk can override individual keys.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// Keys of the built-in annotation prompts
const (
	AnnotationSystem = "analyze-bookmark-system"
	AnnotationInput  = "bookmark-input"
)

const builtinFile = "annotation.json"

// Set is an immutable collection of named prompt templates
type Set struct {
	source    string
	templates map[string]*template.Template
	raw       map[string]string
}

var builtin = sync.OnceValues(func() (*Set, error) {
	data, err := promptFiles.ReadFile(builtinFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", builtinFile, err)
	}
	return parse(builtinFile, data)
})

// Default returns the embedded prompt set. It panics if the embedded file is broken,
// which can only happen through a bad build.
func Default() *Set {
	s, err := builtin()
	if err != nil {
		panic(fmt.Sprintf("failed to load prompts: %v", err))
	}
	return s
}

// LoadFile reads a JSON object of key to template from path and layers it over the defaults.
// Keys the file does not mention keep their built-in text.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	override, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	return Default().Merge(override), nil
}

func parse(source string, data []byte) (*Set, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", source, err)
	}

	s := &Set{source: source, templates: make(map[string]*template.Template, len(raw)), raw: raw}
	for key, text := range raw {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("prompt %q in %s: %w", key, source, err)
		}
		s.templates[key] = tmpl
	}
	return s, nil
}

// Merge returns a new set with every key of other replacing the same key in s
func (s *Set) Merge(other *Set) *Set {
	merged := &Set{
		source:    other.source,
		templates: make(map[string]*template.Template, len(s.templates)+len(other.templates)),
		raw:       make(map[string]string, len(s.raw)+len(other.raw)),
	}
	for _, src := range []*Set{s, other} {
		for k, t := range src.templates {
			merged.templates[k] = t
			merged.raw[k] = src.raw[k]
		}
	}
	return merged
}

// Get returns the unrendered text of a prompt
func (s *Set) Get(key string) (string, error) {
	text, ok := s.raw[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.source)
	}
	return text, nil
}

// Render executes the prompt template with data.
// Referencing a field or map key that data lacks is an error.
func (s *Set) Render(key string, data any) (string, error) {
	tmpl, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.source)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return sb.String(), nil
}

// Keys lists the prompt names in sorted order
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.raw))
	for k := range s.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
