package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ports"
)

// LocalFS implements ports.InputStore over the server's input directory.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

// Root returns the directory names are resolved against.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) Open(ctx context.Context, name string) (ports.InputFile, error) {
	p, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *LocalFS) Stat(ctx context.Context, name string) (int64, error) {
	p, err := l.resolve(name)
	if err != nil {
		return 0, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	if st.IsDir() {
		return 0, fmt.Errorf("%s is a directory", name)
	}
	return st.Size(), nil
}

// resolve joins name under root and refuses anything that escapes it.
func (l *LocalFS) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("input name is required")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("input name must be relative: %s", name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("input name escapes input directory: %s", name)
	}
	return filepath.Join(l.root, clean), nil
}
