package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is the project subdirectory that collects exports waiting to be imported.
const Dir = "import"

// Inbox is <project>/import. Imported files move to its processed/ child so a
// second run does not create the same bills again.
type Inbox struct {
	dir string
}

// NewInbox returns the inbox of the project rooted at root.
func NewInbox(root string) Inbox {
	return Inbox{dir: filepath.Join(root, Dir)}
}

// Path is the inbox directory.
func (in Inbox) Path() string { return in.dir }

// Pending lists the CSV files waiting in the inbox, sorted by name. A missing
// inbox has nothing pending.
func (in Inbox) Pending() ([]string, error) {
	entries, err := os.ReadDir(in.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			paths = append(paths, filepath.Join(in.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Done moves an imported file into processed/.
func (in Inbox) Done(path string) error {
	processed := filepath.Join(in.dir, "processed")
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", processed, err)
	}
	name := filepath.Base(path)
	if err := os.Rename(path, filepath.Join(processed, name)); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
