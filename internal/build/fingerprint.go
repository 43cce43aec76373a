package build

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Rana718/sqlir/internal/utils"
)

// Fingerprint hashes every file matched by patterns, names included, in path
// order. Two equal fingerprints mean a rebuild would see the same input.
func Fingerprint(patterns []string) (string, error) {
	var files utils.FileUtils
	paths, err := files.ExpandGlobs(patterns)
	if err != nil {
		return "", err
	}

	hash := sha256.New()
	for _, path := range paths {
		if err := hashFile(hash, path); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(w, "%s\x00", filepath.ToSlash(path))
	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	_, err = w.Write([]byte{0})
	return err
}
