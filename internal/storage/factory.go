// Package storage selects the input store audio is read from.
package storage

import (
	"os"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/adapters/inputs/localfs"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ports"
)

// NewInputStore returns the store rooted at the server's input directory.
// The directory must exist.
func NewInputStore(root string) (ports.InputStore, error) {
	if root == "" {
		return nil, errors.Validation("input directory is required")
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "storage.inputs", "input directory not accessible").
			WithField("dir", root)
	}
	if !st.IsDir() {
		return nil, errors.Validationf("%s is not a directory", root).WithField("dir", root)
	}
	return localfs.New(root), nil
}
