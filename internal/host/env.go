package host

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/joho/godotenv"
)

// MapEnv is an Env over a fixed map.
type MapEnv map[string]string

// Lookup implements Env.
func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// FileEnv is an Env read from a dotenv file. The process environment is
// never modified. A missing file is an empty environment.
type FileEnv struct {
	path string

	mu   sync.RWMutex
	vars map[string]string
}

// NewFileEnv reads path.
func NewFileEnv(path string) (*FileEnv, error) {
	e := &FileEnv{path: path}
	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-reads the file.
func (e *FileEnv) Reload() error {
	vars := map[string]string{}
	if e.path != "" {
		read, err := godotenv.Read(e.path)
		switch {
		case err == nil:
			vars = read
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("reading env file %s: %w", e.path, err)
		}
	}

	e.mu.Lock()
	e.vars = vars
	e.mu.Unlock()
	return nil
}

// Lookup implements Env.
func (e *FileEnv) Lookup(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[key]
	return v, ok
}

// Len returns the number of variables loaded.
func (e *FileEnv) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vars)
}

// Path returns the file the environment was read from.
func (e *FileEnv) Path() string { return e.path }
