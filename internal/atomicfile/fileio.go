// Package atomicfile owns every byte that reaches disk: reading theme files
// with their encoding and permissions, snapshotting them to backups, applying
// batches of edits through temp-file-and-rename writes, and rolling the whole
// batch back when any file fails.
package atomicfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// ReadThemeFile loads and analyzes one theme file, enforcing the size and
// line ceilings before anything else reads it.
func ReadThemeFile(path, encodingName string) (*structure.ThemeFile, error) {
	if err := security.CheckFileSize(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, patcherrors.NewWriteError(path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, patcherrors.NewWriteError(path, err)
	}

	content, err := decodeContent(data, encodingName)
	if err != nil {
		return nil, patcherrors.NewWriteError(path, err)
	}

	lines, trailing := structure.SplitLines(content)
	if err := security.CheckLineCount(path, len(lines)); err != nil {
		return nil, err
	}

	tf, err := structure.Analyze(path, lines, trailing)
	if err != nil {
		return nil, err
	}
	tf.Permissions = info.Mode().Perm()
	tf.Encoding = encodingName
	return tf, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".themepatcher-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

func decodeContent(data []byte, name string) (string, error) {
	enc := encodingByName(name)
	if enc == nil {
		return string(data), nil
	}

	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func encodeContent(content string, name string) ([]byte, error) {
	enc := encodingByName(name)
	if enc == nil {
		return []byte(content), nil
	}
	var buf bytes.Buffer
	writer := transform.NewWriter(&buf, enc.NewEncoder())
	if _, err := writer.Write([]byte(content)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidateEncoding rejects encoding names the reader cannot decode, so a
// typo'd flag fails before any file is opened instead of silently reading
// bytes as UTF-8.
func ValidateEncoding(name string) error {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8", "latin-1", "latin1", "iso-8859-1", "windows-1252", "utf-16", "utf-16le", "utf-16be":
		return nil
	default:
		return patcherrors.NewValidationError("", fmt.Sprintf("unsupported encoding %q", name), nil)
	}
}

func encodingByName(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1
	case "windows-1252":
		return charmap.Windows1252
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	default:
		return nil
	}
}
