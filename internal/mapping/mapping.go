package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/redact/internal/catalog"
	"github.com/dshills/redact/internal/redact"
)

// Result describes what Write stored.
type Result struct {
	Files   []string
	Entries int
	// Skipped counts entries that would not read back unchanged.
	Skipped int
}

// Write stores entries under dir/substitutions, one file per type, lines in
// the order given. Existing files for those types are replaced.
func Write(dir string, entries []redact.Entry) (Result, error) {
	var res Result
	sub := filepath.Join(dir, catalog.KindSubstitutions)
	if err := os.MkdirAll(sub, 0o700); err != nil {
		return res, fmt.Errorf("creating mapping directory: %w", err)
	}

	var order []string
	lines := make(map[string]*strings.Builder)
	for _, e := range entries {
		if !storable(e) {
			res.Skipped++
			continue
		}
		b, ok := lines[e.Type]
		if !ok {
			b = &strings.Builder{}
			lines[e.Type] = b
			order = append(order, e.Type)
		}
		fmt.Fprintf(b, "%s = %s\n", e.Secret, e.Placeholder)
		res.Entries++
	}

	for _, typ := range order {
		path := filepath.Join(sub, typ)
		if err := writeFile(path, []byte(lines[typ].String())); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
	}
	return res, nil
}

// storable reports whether e survives a round trip through the catalog's
// line format: one trimmed, uncommented line split on its last '='.
func storable(e redact.Entry) bool {
	if !catalog.ValidTypeName(e.Type) {
		return false
	}
	s := e.Secret
	if s == "" || strings.ContainsAny(s, "\r\n") || strings.TrimSpace(s) != s || strings.HasPrefix(s, "#") {
		return false
	}
	p := e.Placeholder
	return !strings.ContainsAny(p, "=\r\n") && strings.TrimSpace(p) == p
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// TypeStats summarizes one mapping file.
type TypeStats struct {
	Type    string `json:"type"`
	Entries int    `json:"entries"`
}

// Stats summarizes a mapping directory.
type Stats struct {
	Dir        string      `json:"dir"`
	Types      []TypeStats `json:"types"`
	Entries    int         `json:"entries"`
	TotalBytes int64       `json:"totalBytes"`
}

// GetStats counts the entries of each mapping file in dir. A directory
// without mappings yields empty stats.
func GetStats(dir string) (Stats, error) {
	stats := Stats{Dir: dir}
	sub := filepath.Join(dir, catalog.KindSubstitutions)
	entries, err := os.ReadDir(sub)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading mapping directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sub, e.Name()))
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		n := countEntries(string(data))
		stats.Types = append(stats.Types, TypeStats{Type: e.Name(), Entries: n})
		stats.Entries += n
		stats.TotalBytes += info.Size()
	}
	sort.Slice(stats.Types, func(i, j int) bool { return stats.Types[i].Type < stats.Types[j].Type })
	return stats, nil
}

func countEntries(data string) int {
	n := 0
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, _, ok := catalog.ParseSubstitution(line); ok {
			n++
		}
	}
	return n
}
