package signal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ica/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Persona is one prompting profile for signal generation: who the agent
// pretends to be and which tokens it watches by default.
type Persona struct {
	ID           string   `mapstructure:"id" yaml:"id"`
	Description  string   `mapstructure:"description" yaml:"description"`
	SystemPrompt string   `mapstructure:"system_prompt" yaml:"system_prompt"`
	Watchlist    []string `mapstructure:"watchlist" yaml:"watchlist"`
}

type personaFile struct {
	Personas map[string]Persona `mapstructure:"personas" yaml:"personas"`
}

// PersonaSnapshot is the persona set loaded from one file read.
type PersonaSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Personas map[string]Persona
}

// PersonaRegistry loads personas from a YAML file and reloads on change.
type PersonaRegistry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot PersonaSnapshot
}

func NewPersonaRegistry(path string) (*PersonaRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("persona registry requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read persona config failed: %w", err)
	}
	r := &PersonaRegistry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("persona reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current persona set.
func (r *PersonaRegistry) Snapshot() PersonaSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePersonaSnapshot(r.snapshot)
}

// Persona returns the persona with the given ID.
func (r *PersonaRegistry) Persona(id string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Personas[strings.TrimSpace(id)]
	return p, ok
}

func (r *PersonaRegistry) reload() error {
	cfg, err := readPersonaFile(r.path)
	if err != nil {
		return err
	}
	personas := make(map[string]Persona)
	for name, p := range cfg.Personas {
		norm := normalizePersona(name, p)
		personas[norm.ID] = norm
	}
	r.mu.Lock()
	r.snapshot = PersonaSnapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Personas: personas,
	}
	r.mu.Unlock()
	logger.Infof("Persona registry loaded %d personas from %s", len(personas), filepath.Base(r.path))
	return nil
}

func normalizePersona(name string, p Persona) Persona {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = strings.TrimSpace(name)
	}
	p.Description = strings.TrimSpace(p.Description)
	cleaned := make([]string, 0, len(p.Watchlist))
	for _, sym := range p.Watchlist {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			cleaned = append(cleaned, sym)
		}
	}
	p.Watchlist = cleaned
	return p
}

func clonePersonaSnapshot(src PersonaSnapshot) PersonaSnapshot {
	dst := PersonaSnapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Personas: make(map[string]Persona, len(src.Personas)),
	}
	for id, p := range src.Personas {
		dst.Personas[id] = p
	}
	return dst
}

func readPersonaFile(path string) (personaFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return personaFile{}, fmt.Errorf("read persona config failed: %w", err)
	}
	var cfg personaFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return personaFile{}, fmt.Errorf("parse persona config failed: %w", err)
	}
	return cfg, nil
}
