// Package repos manages repository definitions stored in a yum-style INI
// file, one section per repository.
package repos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/ini.v1"
)

// ErrNotFound is returned for an unknown repository id.
var ErrNotFound = errors.New("repository not found")

// Repo is one configured repository.
type Repo struct {
	ID      string
	Name    string
	BaseURL string
	Enabled bool
	Devel   bool
	Data    map[string]string
}

const defaultRepos = `[fedora]
name     = Fedora - 9
baseurl  = http://download.fedoraproject.org/pub/fedora/linux/releases/9/Everything/i386/os/
enabled  = true
gpgcheck = true

[development]
name     = Fedora - Development
baseurl  = http://download.fedoraproject.org/pub/fedora/linux/development/i386/os/
enabled  = false
devel    = true
gpgcheck = true

[livna-development]
name     = Livna for Fedora Core 8 - i386 - Development Tree
baseurl  = http://rpm.livna.org/fedora/development/i386/
enabled  = true
devel    = true
gpgcheck = true

[linva]
name     = Linva extras
baseurl  = http://linva.example.com/repo/
enabled  = true
gpgcheck = true
`

// reserved keys map to Repo fields rather than Data.
var reserved = map[string]bool{"name": true, "baseurl": true, "enabled": true, "devel": true}

// Store is a set of repositories backed by an INI file. A store without a
// path lives in memory only.
type Store struct {
	path string

	mu  sync.RWMutex
	cfg *ini.File
}

// Load reads the repository file at path, writing the default
// repositories first when it does not exist.
func Load(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create repo directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultRepos), 0644); err != nil {
			return nil, fmt.Errorf("failed to write default repos: %w", err)
		}
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Store{path: path, cfg: cfg}, nil
}

// Parse builds an in-memory store from INI data. Nil data yields the
// default repositories.
func Parse(data []byte) (*Store, error) {
	if data == nil {
		data = []byte(defaultRepos)
	}
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repos: %w", err)
	}
	return &Store{cfg: cfg}, nil
}

// List returns every repository sorted by id.
func (s *Store) List() []Repo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Repo
	for _, sec := range s.cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		out = append(out, toRepo(sec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the repository id.
func (s *Store) Get(id string) (Repo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.sectionLocked(id)
	if err != nil {
		return Repo{}, err
	}
	return toRepo(sec), nil
}

// Enabled reports whether id is a known, enabled repository.
func (s *Store) Enabled(id string) bool {
	r, err := s.Get(id)
	return err == nil && r.Enabled
}

// SetEnabled enables or disables id and saves the file.
func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.Set(id, "enabled", fmt.Sprintf("%t", enabled))
}

// Set stores parameter=value in the section of id and saves the file.
func (s *Store) Set(id, parameter, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sectionLocked(id)
	if err != nil {
		return err
	}
	sec.Key(parameter).SetValue(value)
	return s.saveLocked()
}

func (s *Store) sectionLocked(id string) (*ini.Section, error) {
	if id == "" || id == ini.DefaultSection || !s.cfg.HasSection(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.cfg.Section(id), nil
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := s.cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to save repos: %w", err)
	}
	return nil
}

func toRepo(sec *ini.Section) Repo {
	r := Repo{
		ID:      sec.Name(),
		Name:    sec.Key("name").MustString(sec.Name()),
		BaseURL: sec.Key("baseurl").String(),
		Enabled: sec.Key("enabled").MustBool(true),
		Devel:   sec.Key("devel").MustBool(false),
		Data:    make(map[string]string),
	}
	for _, k := range sec.Keys() {
		if !reserved[k.Name()] {
			r.Data[k.Name()] = k.Value()
		}
	}
	return r
}
