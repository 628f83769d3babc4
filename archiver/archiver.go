// Package archiver writes gzip copies of single files.
package archiver

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Suffix is appended to the name of a compressed file.
const Suffix = ".gz"

// IsCompressed reports whether path already carries the compressed suffix.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

// GzipFile writes a gzip copy of src to src+Suffix and returns its path. The
// copy keeps the permission bits and modification time of src. An existing
// destination is never overwritten. If compression fails the partial
// destination is removed. src itself is left in place.
func GzipFile(src string) (string, error) {
	dst := src + Suffix

	sourceFile, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return "", err
	}

	// Create destination file for writing
	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return "", err
	}

	if err := writeGzip(destFile, sourceFile, info); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("compress %s: %w", src, err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("set times on %s: %w", dst, err)
	}
	return dst, nil
}

func writeGzip(destFile *os.File, sourceFile io.Reader, info os.FileInfo) error {
	// Create gzip writer
	gzipWriter := gzip.NewWriter(destFile)
	gzipWriter.Name = info.Name()
	gzipWriter.ModTime = info.ModTime()

	// Copy source file contents to the gzip stream
	_, err := io.Copy(gzipWriter, sourceFile)

	// Close writers and files
	err = errors.Join(err, gzipWriter.Close())
	if err == nil {
		err = destFile.Sync()
	}
	return errors.Join(err, destFile.Close())
}
