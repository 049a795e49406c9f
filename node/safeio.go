package node

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// MAX_INPUT_FILE_BYTES bounds files read by operator tools. Hex-encoded
// publications with a full Bitcoin context are the largest inputs.
const MAX_INPUT_FILE_BYTES = 64 << 20

// ReadInputFile reads path, refusing names that escape its directory and
// files larger than MAX_INPUT_FILE_BYTES.
func ReadInputFile(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return readFileFromDir(dir, name)
}

func readFileFromDir(dir, name string) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	f, err := os.DirFS(dir).Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readBounded(f, MAX_INPUT_FILE_BYTES)
}

func readBounded(f fs.File, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("file exceeds %d bytes", max)
	}
	return b, nil
}
