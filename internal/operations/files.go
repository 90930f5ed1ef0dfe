package operations

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func withSuffix(filePath, suffix, dirOverride string) string {
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	dir := filepath.Dir(filePath)
	if dirOverride != "" {
		dir = dirOverride
	}
	return filepath.Join(dir, fmt.Sprintf("%s%s%s", name, suffix, ext))
}

// writeAtomic calls write with a temporary path next to dst and moves the
// result into place only when write succeeds.
func writeAtomic(dst string, write func(path string) error) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath, err := tempOutputPath(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmpPath); err != nil {
		return err
	}
	return replaceFile(tmpPath, dst)
}

func tempOutputPath(filePath string) (string, error) {
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	pattern := fmt.Sprintf("%s.converting-*%s", name, ext)

	tmpFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(tmpPath); err != nil {
		return "", err
	}

	return tmpPath, nil
}

func replaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func samePath(a, b string) bool {
	return pathKey(a) == pathKey(b)
}

// pathKey is the absolute form of p, used to compare paths.
func pathKey(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
