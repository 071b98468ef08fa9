// Package manifest declares beans in YAML and binds them to typed factories.
//
//	beans:
//	  - name: toolbar
//	    factory: ui.toolbar
//	    scope: singleton
//	    qualifiers: ["@Primary"]
//	  - name: reports
//	    factory: reports.quarterly
//	    deferred: true
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-async-ioc/framework/container"
	"github.com/km-arc/go-async-ioc/framework/http/validation"
)

var (
	// ErrDuplicateName is wrapped by an EntryError when two entries share a name.
	ErrDuplicateName = errors.New("manifest: duplicate bean name")

	// ErrUnknownFactory is wrapped by an EntryError when no factory is bound
	// under the entry's factory name.
	ErrUnknownFactory = errors.New("manifest: unknown factory")
)

// EntryError reports a problem with one manifest entry.
type EntryError struct {
	Index int
	Name  string
	Err   error
}

func (e *EntryError) Error() string {
	return "manifest: beans[" + strconv.Itoa(e.Index) + "] " + strconv.Quote(e.Name) + ": " + e.Err.Error()
}

func (e *EntryError) Unwrap() error { return e.Err }

// Entry declares one bean.
type Entry struct {
	Name       string   `yaml:"name"`
	Factory    string   `yaml:"factory"`
	Scope      string   `yaml:"scope,omitempty"`
	Qualifiers []string `yaml:"qualifiers,omitempty"`
	Deferred   bool     `yaml:"deferred,omitempty"`
}

// Manifest is a parsed bean manifest.
type Manifest struct {
	Beans []Entry `yaml:"beans"`
}

var entryRules = validation.Rules{
	"name":    "required|alpha_dash|max:64",
	"factory": `required|max:128|regex:^[a-z][a-zA-Z0-9_.]*$`,
	"scope":   "sometimes|in:singleton,dependent",
}

const qualifierRule = `required|regex:^@[A-Za-z][A-Za-z0-9_()]*$`

// Parse decodes and validates a manifest payload. Unknown keys are errors.
func Parse(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("manifest: payload is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	m = m.Normalized()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// Normalized trims whitespace and lower-cases scopes.
func (m Manifest) Normalized() Manifest {
	out := Manifest{Beans: make([]Entry, len(m.Beans))}
	for i, e := range m.Beans {
		e.Name = strings.TrimSpace(e.Name)
		e.Factory = strings.TrimSpace(e.Factory)
		e.Scope = strings.ToLower(strings.TrimSpace(e.Scope))
		quals := make([]string, 0, len(e.Qualifiers))
		for _, q := range e.Qualifiers {
			quals = append(quals, strings.TrimSpace(q))
		}
		e.Qualifiers = quals
		out.Beans[i] = e
	}
	return out
}

// Validate checks every entry and that names are unique.
func (m Manifest) Validate() error {
	seen := make(map[string]int, len(m.Beans))
	for i, e := range m.Beans {
		if err := e.Validate(); err != nil {
			return &EntryError{Index: i, Name: e.Name, Err: err}
		}
		if prev, dup := seen[e.Name]; dup {
			return &EntryError{Index: i, Name: e.Name,
				Err: fmt.Errorf("%w (first at beans[%d])", ErrDuplicateName, prev)}
		}
		seen[e.Name] = i
	}
	return nil
}

// Validate checks a single entry. The returned error is a *validation.Errors.
func (e Entry) Validate() error {
	data := map[string]string{
		"name":    e.Name,
		"factory": e.Factory,
		"scope":   e.Scope,
	}
	rules := validation.Rules{}
	for k, v := range entryRules {
		rules[k] = v
	}
	for i, q := range e.Qualifiers {
		key := "qualifiers." + strconv.Itoa(i)
		data[key] = q
		rules[key] = qualifierRule
	}

	v := validation.Make(data, rules)
	if v.Fails() {
		return v.Errors()
	}
	return nil
}

// BeanScope returns the entry's scope; empty means dependent.
func (e Entry) BeanScope() container.Scope {
	s, _ := container.ParseScope(e.Scope)
	return s
}

// BeanQualifiers returns the declared qualifiers.
func (e Entry) BeanQualifiers() []container.Qualifier {
	out := make([]container.Qualifier, len(e.Qualifiers))
	for i, q := range e.Qualifiers {
		out[i] = container.Qualifier(q)
	}
	return out
}
