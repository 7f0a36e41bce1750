// Package helpers holds the input, output and rendering plumbing shared by
// the formatapi commands.
package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/pkg/filesystem"
)

// StdinArg selects standard input explicitly.
const StdinArg = "-"

// ReadInput returns the text named by the first argument: a file path, or
// "-" (or no argument at all) for standard input.
func ReadInput(in io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == StdinArg {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

// WriteOutput prints content, or writes it to path when one is given.
// Output files may hold API keys and are created owner-only.
func WriteOutput(out, status io.Writer, path, content string) error {
	if path == "" {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		_, err := io.WriteString(out, content)
		return err
	}
	path = filesystem.ExpandPath(path)
	if err := filesystem.WriteFileAtomic(path, []byte(content), domain.SecureFilePermissions); err != nil {
		return &domain.PersistenceError{Op: "write output", Path: path, Err: err}
	}
	fmt.Fprintf(status, "Wrote %s\n", path)
	return nil
}

// IsTerminal reports whether w is an interactive character device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
