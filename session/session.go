// Package session persists the logged-in state of the command line client
// between invocations: the bearer token and who it belongs to.
package session

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const fileName = "session.yml"

// Session is the persisted client state.
type Session struct {
	Token          string `yaml:"token"`
	NombreCompleto string `yaml:"nombreCompleto"`
	Rol            string `yaml:"rol"`
	IDUsuario      int64  `yaml:"idUsuario"`
}

// LoggedIn reports whether s carries a token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Store reads and writes a Session at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store at path, or at the default location under the
// user config directory when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "locate user config dir")
		}
		path = filepath.Join(dir, "transporte-admin", fileName)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

// Load returns the saved session. A missing file is an empty session.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, errors.Wrapf(err, "read session %s", s.path)
	}
	var out Session
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Session{}, errors.Wrapf(err, "parse session %s", s.path)
	}
	return out, nil
}

// Save replaces the stored session. The file is readable by its owner only.
func (s *Store) Save(sess Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "create session dir for %s", s.path)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(err, "write session %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replace session file")
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove session %s", s.path)
	}
	return nil
}
