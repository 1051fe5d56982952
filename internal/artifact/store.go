package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"
)

// Screenshot names used by a verification run. Success and failure evidence
// never share a file.
const (
	NameSuccess = "agent_modal"
	NameError   = "error"
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Meta describes a stored screenshot.
type Meta struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Step      string    `json:"step,omitempty"`
	URL       string    `json:"url,omitempty"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages screenshot files and their metadata sidecars on disk.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// ImagePath returns where the image for name is written.
func (s *Store) ImagePath(name, format string) string {
	return filepath.Join(s.dir, name+"."+format)
}

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid artifact name: %q", name)
	}
	return nil
}

// Save writes the image file and its metadata sidecar, replacing any previous
// artifact of the same name. It returns the image path.
func (s *Store) Save(meta Meta, imageData []byte) (string, error) {
	if err := validateName(meta.Name); err != nil {
		return "", err
	}
	if meta.Format == "" {
		meta.Format = "png"
	}
	if len(imageData) == 0 {
		return "", fmt.Errorf("artifact store: empty image for %s", meta.Name)
	}
	meta.SizeBytes = len(imageData)
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imgPath := s.ImagePath(meta.Name, meta.Format)
	jsonPath := filepath.Join(s.dir, meta.Name+".json")

	if err := os.WriteFile(imgPath, imageData, 0o644); err != nil {
		return "", fmt.Errorf("artifact store: write image: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		_ = os.Remove(imgPath)
		return "", fmt.Errorf("artifact store: marshal meta: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		_ = os.Remove(imgPath)
		return "", fmt.Errorf("artifact store: write meta: %w", err)
	}

	return imgPath, nil
}

// List returns every artifact sorted by creation time (newest first).
func (s *Store) List() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("artifact store: glob: %w", err)
	}

	metas := make([]Meta, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil || meta.Name == "" {
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Remove deletes an artifact's image and sidecar. Missing files are ignored.
func (s *Store) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, name+".*"))
	if err != nil {
		return fmt.Errorf("artifact store: glob: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Debug("artifact cleanup failed", "path", path, "error", err)
		}
	}
	return nil
}
