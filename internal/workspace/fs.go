package workspace

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
)

// FS is the file-system collaborator behind every disk load. It is an
// interface so tests can count or fail reads deterministically.
type FS interface {
	ReadFile(path string) ([]byte, error)
}

// osFS reads through the real file system.
type osFS struct{}

// ReadFile implements FS.
func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// OSFS returns the real file-system collaborator.
func OSFS() FS {
	return osFS{}
}

// decodeText converts raw file bytes to a UTF-8 string, honoring UTF-8 and
// UTF-16 byte order marks. Content that is not valid text is an error, not
// replacement runes: a silently mangled source would produce nonsense
// diagnostics downstream.
func decodeText(raw []byte) (string, error) {
	// The fallback UTF-8 decoder substitutes replacement runes instead of
	// failing, so validity is checked on the raw bytes up front.
	if !hasUTF16BOM(raw) && !utf8.Valid(raw) {
		return "", fmt.Errorf("decode text: not valid UTF-8")
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}

	return string(decoded), nil
}

func hasUTF16BOM(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}

	return (raw[0] == 0xff && raw[1] == 0xfe) || (raw[0] == 0xfe && raw[1] == 0xff)
}

// readText loads and decodes one file, classifying failures into the
// compiler's file-error taxonomy.
func readText(fsys FS, path string) (string, error) {
	raw, err := fsys.ReadFile(path)
	if err != nil {
		return "", compiler.NewFileError(path, err)
	}

	text, err := decodeText(raw)
	if err != nil {
		return "", &compiler.FileError{Kind: compiler.FileOther, Path: path, Err: err}
	}

	return text, nil
}
