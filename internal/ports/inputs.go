package ports

import (
	"context"
	"io"
)

// InputFile is an opened server input. WAV decoding needs to seek.
type InputFile interface {
	io.ReadSeekCloser
}

// InputStore resolves file names the way the generation server does
// (relative to its input directory).
type InputStore interface {
	Provider() string

	Open(ctx context.Context, name string) (InputFile, error)
	Stat(ctx context.Context, name string) (size int64, err error)
}
