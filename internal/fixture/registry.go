package fixture

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound       = errors.New("package not found")
	ErrNothingPending = errors.New("no pending settings")
	ErrInvalidName    = errors.New("invalid package name")
)

var packageNameRe = regexp.MustCompile(`^@[A-Za-z0-9._~-]+/[A-Za-z0-9._~-]+$`)

// Package is a repository as the stand-in registry exposes it.
type Package struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	License     string          `json:"license"`
	Version     string          `json:"version"`
	Settings    map[string]bool `json:"settings"`
	Pending     map[string]bool `json:"pending,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Package) clone() Package {
	out := *p
	out.Settings = maps.Clone(p.Settings)
	out.Pending = maps.Clone(p.Pending)
	return out
}

// Registry is an in-memory package store seeded with test fixtures.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*Package
	now      func() time.Time
}

// NewRegistry seeds one package per name.
func NewRegistry(names ...string) (*Registry, error) {
	r := &Registry{packages: make(map[string]*Package), now: time.Now}
	for _, name := range names {
		if err := r.Seed(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Seed adds a package with default settings unless it already exists.
func (r *Registry) Seed(name string) error {
	if !packageNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[name]; ok {
		return nil
	}
	r.packages[name] = &Package{
		Name:        name,
		Description: "Test package for verification",
		Author:      strings.TrimPrefix(strings.SplitN(name, "/", 2)[0], "@"),
		License:     "MIT",
		Version:     "1.0.0",
		Settings: map[string]bool{
			"auto_merge":         false,
			"private":            false,
			"require_signatures": true,
		},
		UpdatedAt: r.now().UTC(),
	}
	return nil
}

// Names lists seeded packages in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named package.
func (r *Registry) Get(name string) (Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packages[name]
	if !ok {
		return Package{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p.clone(), nil
}

// Stage records settings awaiting an out-of-band agent action.
func (r *Registry) Stage(name string, settings map[string]bool) (Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[name]
	if !ok {
		return Package{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	p.Pending = maps.Clone(settings)
	if p.Pending == nil {
		p.Pending = map[string]bool{}
	}
	return p.clone(), nil
}

// Apply commits pending settings, standing in for the agent running the command.
func (r *Registry) Apply(name string) (Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[name]
	if !ok {
		return Package{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if p.Pending == nil {
		return Package{}, fmt.Errorf("%w: %s", ErrNothingPending, name)
	}
	maps.Copy(p.Settings, p.Pending)
	p.Pending = nil
	p.UpdatedAt = r.now().UTC()
	return p.clone(), nil
}

// UpdateCommand renders the CLI command an agent runs to apply settings.
func UpdateCommand(verb, name string, settings map[string]bool) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "botkit repo %s %s", verb, name)
	for _, k := range keys {
		fmt.Fprintf(&b, " --set %s=%t", k, settings[k])
	}
	return b.String()
}
