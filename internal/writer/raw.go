package writer

import (
	"io"
	"os"

	"github.com/waterinstitute/metget/internal/model"
)

// Raw is the pass-through "writer": no interpolation, it copies
// selected source files verbatim and records their destination paths
// (spec §4.8).
type Raw struct {
	Paths []string
}

// NewRaw constructs an empty Raw writer.
func NewRaw() *Raw { return &Raw{} }

// Copy copies src to dstDir (keeping src's base name) and records the
// destination path.
func (r *Raw) Copy(src, dstDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", model.NewError(model.ErrInternal, "Raw.Copy", err)
	}
	defer in.Close()

	dst := dstDir + "/" + baseName(src)
	out, err := os.Create(dst)
	if err != nil {
		return "", model.NewError(model.ErrInternal, "Raw.Copy", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", model.NewError(model.ErrInternal, "Raw.Copy", err)
	}
	r.Paths = append(r.Paths, dst)
	return dst, nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
