package files

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Stdin is the argument that names standard input.
const Stdin = "-"

// sniffBytes is how much of a walked file is inspected for binary content.
const sniffBytes = 8000

// Matcher holds compiled include and exclude filters. Patterns use '/' as
// the separator; "**" crosses directories and a leading "**/" also matches
// at the top level.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles include and exclude patterns. An empty include list
// matches everything.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compile(include); err != nil {
		return nil, err
	}
	if m.exclude, err = compile(exclude); err != nil {
		return nil, err
	}
	return m, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		out = append(out, g)
		if rest, ok := strings.CutPrefix(p, "**/"); ok {
			g, err := glob.Compile(rest, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob %q: %w", p, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// Match reports whether the slash-separated relative path passes the filters.
func (m *Matcher) Match(rel string) bool {
	if len(m.include) > 0 && !matchesAny(rel, m.include) {
		return false
	}
	return !matchesAny(rel, m.exclude)
}

func matchesAny(path string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Expand compiles the filters and expands args with them.
func Expand(args, include, exclude []string) ([]string, error) {
	m, err := NewMatcher(include, exclude)
	if err != nil {
		return nil, err
	}
	return m.Expand(args)
}

// Expand turns arguments into input paths. Files are kept as given, "-" is
// kept for standard input and directories are walked in lexical order,
// keeping regular, non-binary files whose path relative to the directory
// passes the filters. Repeated inputs are kept once, at their first position.
//
// An argument that cannot be expanded does not stop the others: the paths
// found are returned together with the joined errors.
func (m *Matcher) Expand(args []string) ([]string, error) {
	var out []string
	var errs []error
	seen := make(map[string]bool)
	add := func(p string) {
		key := p
		if p != Stdin {
			key = filepath.Clean(p)
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if arg == Stdin {
			add(arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %s: %w", arg, err))
			continue
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		walked, err := walk(arg, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range walked {
			add(p)
		}
	}
	return out, errors.Join(errs...)
}

func walk(root string, m *Matcher) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !m.Match(filepath.ToSlash(rel)) {
			return nil
		}
		binary, err := isBinary(path)
		if err != nil {
			return err
		}
		if !binary {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return out, nil
}

// isBinary reports whether the head of the file contains a NUL byte.
func isBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
