// mappinggen scans a directory of package descriptors and writes the
// id → name mapping table the asset host loads at startup.
//
// Usage:
//
//	go run ./cmd/mappinggen <assets dir> <output.yaml>
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l1jgo/uiasset/internal/data"
	"github.com/l1jgo/uiasset/internal/pkgfile"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: mappinggen <assets dir> <output.yaml>")
		os.Exit(1)
	}

	file, err := collect(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := data.SaveMappingFile(os.Args[2], file); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d packages to %s\n", len(file.PackageIDs), os.Args[2])
}

type entry struct {
	id, name string
}

// collect parses every descriptor under dir. Entries are ordered by id;
// a descriptor without a name takes it from its file name.
func collect(dir string) (data.MappingFile, error) {
	var entries []entry
	seen := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), pkgfile.FileSuffix) {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		desc, err := pkgfile.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		name := desc.Name
		if name == "" {
			name = strings.TrimSuffix(d.Name(), pkgfile.FileSuffix)
		}
		if prev, dup := seen[desc.ID]; dup {
			return fmt.Errorf("%s: id %s already used by %s", path, desc.ID, prev)
		}
		seen[desc.ID] = name
		entries = append(entries, entry{id: desc.ID, name: name})
		return nil
	})
	if err != nil {
		return data.MappingFile{}, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	var file data.MappingFile
	for _, e := range entries {
		file.PackageIDs = append(file.PackageIDs, e.id)
		file.PackageNames = append(file.PackageNames, e.name)
	}
	return file, nil
}
