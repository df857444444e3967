package sign

import (
	"os"
	"path/filepath"

	"github.com/inkseal/pdfsign/common"
)

// WriteFile writes data to a temporary file next to path and renames it
// into place, so path either keeps its old content or holds all of data.
func WriteFile(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &common.IOError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &common.IOError{Path: tmp.Name(), Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &common.IOError{Path: tmp.Name(), Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &common.IOError{Path: tmp.Name(), Err: err}
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return &common.IOError{Path: tmp.Name(), Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &common.IOError{Path: path, Err: err}
	}
	return nil
}
