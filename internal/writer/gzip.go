package writer

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/waterinstitute/metget/internal/model"
)

// GzipInPlace compresses path to path+".gz" and removes the original,
// used for OWI-ASCII's optional post-close gzip (spec §4.8).
func GzipInPlace(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return model.NewError(model.ErrInternal, "GzipInPlace", err)
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return model.NewError(model.ErrInternal, "GzipInPlace", err)
	}
	defer out.Close()

	gw, _ := gzip.NewWriterLevel(out, gzip.DefaultCompression)
	if _, err := io.Copy(gw, in); err != nil {
		return model.NewError(model.ErrInternal, "GzipInPlace", err)
	}
	if err := gw.Close(); err != nil {
		return model.NewError(model.ErrInternal, "GzipInPlace", err)
	}
	in.Close()
	return os.Remove(path)
}
