package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is a named system-prompt template.
type Template struct {
	// Name is the template identifier (file name without extension).
	Name string

	// Body is the template text injected as a system message.
	Body string
}

// NotFoundError indicates that no template with the given name exists.
type NotFoundError struct {
	// Name is the requested template name.
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prompt template %q not found", e.Name)
}

// Store resolves template names to template content.
type Store interface {
	// Load reads the template with the given name.
	// Returns *NotFoundError when the template does not exist.
	Load(name string) (*Template, error)

	// List returns the names of all available templates, sorted.
	List() ([]string, error)
}

// FileStore reads templates from <root>/<name>.txt files.
type FileStore struct {
	root string
}

// NewFileStore creates a store backed by the given directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Load reads <root>/<name>.txt. Names containing path separators or
// traversal sequences are rejected as not found.
func (s *FileStore) Load(name string) (*Template, error) {
	if !validName(name) {
		return nil, &NotFoundError{Name: name}
	}

	data, err := os.ReadFile(filepath.Join(s.root, name+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("reading template %q: %w", name, err)
	}

	return &Template{Name: name, Body: string(data)}, nil
}

// List returns the names of all *.txt files under the root, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading template root %q: %w", s.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".txt") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
		}
	}

	sort.Strings(names)
	return names, nil
}

// validName rejects names that would escape the template root.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
