package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

const (
	annotationUp         = "-- +goose Up"
	annotationDown       = "-- +goose Down"
	annotationBlockStart = "-- +goose StatementBegin"
	annotationBlockEnd   = "-- +goose StatementEnd"
)

// Validate checks every .sql file in files and reports all problems found:
// a 14 digit version prefix, unique versions, both directions present and
// balanced statement blocks.
func Validate(files fs.FS) error {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	var errs error
	versions := make(map[int64]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		version, err := parseVersion(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if first, dup := versions[version]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %d already used by %s", name, version, first))
			continue
		}
		versions[version] = name

		body, err := fs.ReadFile(files, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(name, string(body)))
	}
	return errs
}

// parseVersion reads the YYYYMMDDHHMMSS prefix of a <version>_<slug>.sql name.
func parseVersion(name string) (int64, error) {
	stem := strings.TrimSuffix(name, ".sql")
	prefix, slug, ok := strings.Cut(stem, "_")
	if !ok || len(prefix) != len(versionLayout) || slug == "" || slugify(slug) != slug {
		return 0, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name)
	}
	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: version: %w", name, err)
	}
	return version, nil
}

func checkAnnotations(name, body string) error {
	var errs error
	up := strings.Index(body, annotationUp)
	down := strings.Index(body, annotationDown)
	switch {
	case up < 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationUp))
	case down < 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationDown))
	case down < up:
		errs = multierr.Append(errs, fmt.Errorf("%s: down section precedes up section", name))
	}

	open := false
	for i, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case annotationBlockStart:
			if open {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: nested statement block", name, i+1))
			}
			open = true
		case annotationBlockEnd:
			if !open {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: statement block end without begin", name, i+1))
			}
			open = false
		}
	}
	if open {
		errs = multierr.Append(errs, fmt.Errorf("%s: unterminated statement block", name))
	}
	return errs
}
