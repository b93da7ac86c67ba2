package library

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// PhotoFileName returns the name under which the photo of name, taken from a
// file with extension ext, is stored at time now.
func PhotoFileName(name Name, ext string, now time.Time) string {
	stem := func(s string) string { return strings.ReplaceAll(strings.ToLower(s), " ", "-") }
	return fmt.Sprintf("%s_%s_%s%s", stem(name.Last), stem(name.First), now.Format("20060102_150405"), strings.ToLower(ext))
}

// CopyPhoto copies the image at src into dir and returns the new file name.
func CopyPhoto(dir string, name Name, src string, now time.Time) (string, error) {
	ext := filepath.Ext(src)
	if !photoExtensions[strings.ToLower(ext)] {
		return "", Validation("photo %q must be a .jpg, .jpeg or .png file", filepath.Base(src))
	}

	in, err := os.Open(filepath.Clean(src))
	if errors.Is(err, fs.ErrNotExist) {
		return "", NotFound("photo %q not found", src).WithCause(err)
	}
	if err != nil {
		return "", fmt.Errorf("open photo: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create photos dir: %w", err)
	}
	file := PhotoFileName(name, ext, now)
	if err := writeFileAtomic(filepath.Join(dir, file), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return "", fmt.Errorf("copy photo: %w", err)
	}
	return file, nil
}
