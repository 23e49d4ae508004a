// Package macro loads named dice expressions from YAML and expands "@name"
// references typed at the console or passed on the command line.
package macro

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/diceroll/internal/dice"
)

// ErrUnknownMacro is returned by Expand for a name with no definition.
var ErrUnknownMacro = errors.New("unknown macro")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Macro is a named dice expression, loaded from YAML.
type Macro struct {
	Name        string `yaml:"name"`
	Expression  string `yaml:"expression"`
	Description string `yaml:"description"`

	roller *dice.Roller
}

// Roller returns the parsed expression. Only valid for registered macros.
func (m *Macro) Roller() *dice.Roller { return m.roller }

type file struct {
	Macros []*Macro `yaml:"macros"`
}

// Registry holds all known Macros keyed by name.
type Registry struct {
	defs map[string]*Macro
	opts []dice.Option
}

// NewRegistry creates an empty Registry. opts are applied when parsing each
// macro's expression.
func NewRegistry(opts ...dice.Option) *Registry {
	return &Registry{defs: make(map[string]*Macro), opts: opts}
}

// Register validates m and adds it, overwriting any macro with the same name.
//
// Precondition: m must not be nil.
// Postcondition: Returns an error if the name is malformed or the expression
// does not parse; the registry is unchanged in that case.
func (r *Registry) Register(m *Macro) error {
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("macro name %q must match %s", m.Name, namePattern)
	}
	roller, err := dice.New(m.Expression, r.opts...)
	if err != nil {
		return fmt.Errorf("macro %q: %w", m.Name, err)
	}
	m.roller = roller
	r.defs[m.Name] = m
	return nil
}

// Get returns the Macro for name, or (nil, false) if not found.
func (r *Registry) Get(name string) (*Macro, bool) {
	m, ok := r.defs[name]
	return m, ok
}

// All returns every registered Macro sorted by name.
func (r *Registry) All() []*Macro {
	out := make([]*Macro, 0, len(r.defs))
	for _, m := range r.defs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered macros.
func (r *Registry) Len() int { return len(r.defs) }

// Expand replaces a leading "@name" in line with the macro's expression.
// Lines that do not start with "@" are returned unchanged.
//
// Text after the name is appended to the expression. When that text carries
// its own ": reason", it replaces the macro's reason; otherwise the macro's
// reason is kept at the end.
//
// Postcondition: Returns the expanded line, or an error wrapping ErrUnknownMacro.
func (r *Registry) Expand(line string) (string, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "@") {
		return line, nil
	}
	body := trimmed[1:]
	end := strings.IndexAny(body, " \t:+-*/^")
	if end < 0 {
		end = len(body)
	}
	name, rest := body[:end], strings.TrimSpace(body[end:])
	m, ok := r.defs[name]
	if !ok {
		return "", fmt.Errorf("%w: @%s", ErrUnknownMacro, name)
	}
	if rest == "" {
		return m.Expression, nil
	}

	base := m.roller.WithoutReason().String()
	cmd := m.roller.Command()
	if strings.Contains(rest, ":") || !cmd.HasReason {
		return base + " " + rest, nil
	}
	return base + " " + rest + " : " + cmd.Reason, nil
}

// Load reads macros from path, which may be a single YAML file or a directory
// of *.yaml files.
//
// Precondition: path must exist.
// Postcondition: Returns a populated Registry, or an error naming the file
// and macro that failed.
func Load(path string, opts ...dice.Option) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading macros %q: %w", path, err)
	}
	reg := NewRegistry(opts...)
	if !info.IsDir() {
		if err := reg.loadFile(path); err != nil {
			return nil, err
		}
		return reg, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading macro dir %q: %w", path, err)
	}
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		if err := reg.loadFile(filepath.Join(path, e.Name())); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	for i, m := range f.Macros {
		if m == nil {
			return fmt.Errorf("loading %q: macro %d is empty", path, i)
		}
		if err := r.Register(m); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}
