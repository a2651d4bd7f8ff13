package blast

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveReports writes each handle's report into dir as "<n>_<query>.<ext>"
// and returns the paths in handle order.
func SaveReports(dir, ext string, handles []*Handle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	if ext == "" {
		ext = "xml"
	}
	paths := make([]string, 0, len(handles))
	for i, h := range handles {
		name := fmt.Sprintf("%03d_%s.%s", i+1, safeName(h.QueryID), ext)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, h.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write report %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// safeName keeps letters, digits, '.', '-' and '_' and replaces the rest,
// so "sp|Q99J83|ATG5_MOUSE" becomes "sp_Q99J83_ATG5_MOUSE".
func safeName(s string) string {
	if s == "" {
		return "query"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
