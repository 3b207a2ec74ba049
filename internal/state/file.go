package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Legacy marker files written by the management tools. Load imports them
// into the state file and then removes them; Peek only reads them.
const (
	LegacyEngineFile = ".agentengine.env"
	LegacyAgentFile  = ".agentspace_agent.env"

	LegacyEngineKey = "AGENTENGINE_INSTANCE"
	LegacyAgentKey  = "AGENTSPACE_AGENT_INSTANCE"
)

// ErrUnknownSchema is returned for state files written by a newer schema.
var ErrUnknownSchema = errors.New("state: unknown schema version")

// File is a State persisted as YAML at a fixed path.
type File struct {
	path string
}

// NewFile returns a File at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the state. A missing file yields an empty state, after
// importing any legacy marker files found next to it.
func (f *File) Load() (*State, error) {
	return f.read(true)
}

// Peek reads the state like Load but never writes: legacy markers are
// reported without being imported or removed.
func (f *File) Peek() (*State, error) {
	return f.read(false)
}

func (f *File) read(migrate bool) (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading state: %w", err)
		}
		if migrate {
			return f.importLegacy()
		}
		return f.readLegacy()
	}

	s := New()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing state %s: %w", f.path, err)
	}
	if s.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w %d in %s (want %d)", ErrUnknownSchema, s.SchemaVersion, f.path, SchemaVersion)
	}
	return s, nil
}

// Save writes the state atomically. An empty state removes the file so a
// clean checkout and a fully torn-down deployment look the same.
func (f *File) Save(s *State) error {
	if s.Empty() {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing state: %w", err)
		}
		return nil
	}

	s.SchemaVersion = SchemaVersion
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}

func (f *File) legacyPaths() (engine, agent string) {
	dir := filepath.Dir(f.path)
	return filepath.Join(dir, LegacyEngineFile), filepath.Join(dir, LegacyAgentFile)
}

func (f *File) readLegacy() (*State, error) {
	enginePath, agentPath := f.legacyPaths()

	s := New()
	engine, err := ReadEnvValue(enginePath, LegacyEngineKey)
	if err != nil {
		return nil, err
	}
	if engine != "" {
		s.Engine = &EngineRecord{Resource: engine}
	}
	agent, err := ReadEnvValue(agentPath, LegacyAgentKey)
	if err != nil {
		return nil, err
	}
	if agent != "" {
		s.Agent = &AgentRecord{Name: agent, AuthID: os.Getenv("AGENTSPACE_AUTH_ID")}
	}
	return s, nil
}

func (f *File) importLegacy() (*State, error) {
	s, err := f.readLegacy()
	if err != nil || s.Empty() {
		return s, err
	}
	if err := f.Save(s); err != nil {
		return nil, err
	}
	enginePath, agentPath := f.legacyPaths()
	for _, p := range []string{enginePath, agentPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing legacy marker: %w", err)
		}
	}
	return s, nil
}

// ReadEnvValue reads key from a dotenv-format file. A missing file or key
// yields "".
func ReadEnvValue(path, key string) (string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return values[key], nil
}
