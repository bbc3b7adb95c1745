package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredMarkers = []string{
	"-- +goose Up",
	"-- +goose Down",
}

// ValidateDir checks every .sql file in dir for a goose-compatible name, a
// unique version, and both Up and Down sections. All problems are reported
// together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		errs = multierr.Append(errs, validateFile(filepath.Join(dir, name)))
	}
	return errs
}

func validateFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	txt := string(b)
	name := filepath.Base(path)

	var errs error
	for _, marker := range requiredMarkers {
		if !strings.Contains(txt, marker) {
			errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, marker))
		}
	}
	up := strings.Index(txt, requiredMarkers[0])
	down := strings.Index(txt, requiredMarkers[1])
	if up >= 0 && down >= 0 && down < up {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has Down before Up", name))
	}
	return errs
}
