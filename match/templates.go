package match

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/errors"
)

// Template is a named, validated pattern kept for reuse.
type Template struct {
	ID          string    `yaml:"id,omitempty"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Pattern     *Pattern  `yaml:"pattern"`
	Created     time.Time `yaml:"created,omitempty"`
	LastUsed    time.Time `yaml:"lastUsed,omitempty"`
}

// Templates is a thread-safe registry of templates keyed by name.
type Templates struct {
	mu     sync.RWMutex
	byName map[string]*Template
	now    func() time.Time
}

// NewTemplates creates an empty registry.
func NewTemplates() *Templates {
	return &Templates{byName: make(map[string]*Template), now: time.Now}
}

// LoadTemplates reads a YAML list of templates.
func LoadTemplates(r io.Reader) (*Templates, error) {
	var docs []Template
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode templates")
	}
	t := NewTemplates()
	for _, d := range docs {
		if _, err := t.Save(d.Name, d.Description, d.Pattern); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Save validates p and stores it under name, replacing any template with
// that name.
func (t *Templates) Save(name, description string, p *Pattern) (*Template, error) {
	if name == "" {
		return nil, errors.NewInvalidRequestError("template name is required")
	}
	if err := Validate(p); err != nil {
		return nil, errors.Wrapf(err, "template %s", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	tmpl := &Template{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Pattern:     p,
		Created:     now,
		LastUsed:    now,
	}
	t.byName[name] = tmpl
	return tmpl, nil
}

// Get returns a copy of the named template without touching LastUsed.
func (t *Templates) Get(name string) (Template, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tmpl, ok := t.byName[name]
	if !ok {
		return Template{}, false
	}
	return *tmpl, true
}

// Use returns the named pattern and records the access.
func (t *Templates) Use(name string) (*Pattern, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tmpl, ok := t.byName[name]
	if !ok {
		return nil, errors.NewNotFoundError("template %s", name)
	}
	tmpl.LastUsed = t.now()
	return tmpl.Pattern, nil
}

// Remove deletes the named template.
func (t *Templates) Remove(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; !ok {
		return errors.NewNotFoundError("template %s", name)
	}
	delete(t.byName, name)
	return nil
}

// List returns copies of all templates ordered by name.
func (t *Templates) List() []Template {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Template, 0, len(t.byName))
	for _, tmpl := range t.byName {
		out = append(out, *tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
