package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dshills/redact/internal/redact"
)

// Sub-directory names.
const (
	KindPatterns      = "patterns"
	KindSubstitutions = "substitutions"
	KindValidators    = "validators"
)

// TypesFile is the optional inline catalog file of a configuration directory.
const TypesFile = "types.yaml"

var kinds = []string{KindPatterns, KindSubstitutions, KindValidators}

// DefaultDirs returns the directories consulted after any user-supplied ones.
func DefaultDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".redact"))
	}
	return append(dirs, filepath.Join(string(filepath.Separator), "etc", "redact"))
}

// Dirs returns conf followed by the default directories unless noDefault.
func Dirs(conf []string, noDefault bool) []string {
	dirs := append([]string(nil), conf...)
	if !noDefault {
		dirs = append(dirs, DefaultDirs()...)
	}
	return dirs
}

// Options tunes Load.
type Options struct {
	// Only restricts the catalog to these type names when non-empty.
	Only []string
	// ValidatorTimeout bounds each validator invocation.
	ValidatorTimeout time.Duration
	// Finders attaches extra candidate sources by type name, creating the
	// type when no directory defines it.
	Finders map[string]redact.Finder
	Logger  zerolog.Logger
}

// source records where one (type, kind) slot was filled from.
type source struct {
	path string

	// set when the slot came from types.yaml
	inline *inlineType
}

type entry struct {
	name  string
	slots map[string]source
}

// inlineType is one element of types.yaml.
type inlineType struct {
	Name          string            `yaml:"name"`
	Patterns      []string          `yaml:"patterns"`
	Substitutions map[string]string `yaml:"substitutions"`
	Validator     string            `yaml:"validator"`
}

// Load resolves the catalog from dirs. Missing directories are skipped.
func Load(dirs []string, opts Options) ([]redact.SecretType, error) {
	log := opts.Logger
	var order []*entry
	byName := make(map[string]*entry)
	get := func(name string) *entry {
		e, ok := byName[name]
		if !ok {
			e = &entry{name: name, slots: make(map[string]source)}
			byName[name] = e
			order = append(order, e)
		}
		return e
	}

	for _, dir := range dirs {
		for _, kind := range kinds {
			names, err := listFiles(filepath.Join(dir, kind))
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				e := get(name)
				if _, ok := e.slots[kind]; !ok {
					e.slots[kind] = source{path: filepath.Join(dir, kind, name)}
				}
			}
		}

		inline, err := readTypesFile(filepath.Join(dir, TypesFile))
		if err != nil {
			return nil, err
		}
		for i := range inline {
			it := &inline[i]
			e := get(it.Name)
			fill := func(kind string, present bool) {
				if _, ok := e.slots[kind]; !ok && present {
					e.slots[kind] = source{path: filepath.Join(dir, TypesFile), inline: it}
				}
			}
			fill(KindPatterns, len(it.Patterns) > 0)
			fill(KindSubstitutions, len(it.Substitutions) > 0)
			fill(KindValidators, it.Validator != "")
		}
	}

	for _, name := range sortedKeys(opts.Finders) {
		get(name)
	}

	only := make(map[string]bool, len(opts.Only))
	for _, n := range opts.Only {
		only[n] = true
	}

	var types []redact.SecretType
	for _, e := range order {
		if len(only) > 0 && !only[e.name] {
			continue
		}
		delete(only, e.name)

		st, err := build(e, opts, log)
		if err != nil {
			return nil, err
		}
		if len(st.Patterns) == 0 && len(st.Substitutions) == 0 && st.Finder == nil {
			log.Warn().Str("type", e.name).Msg("secret type has no patterns or substitutions, skipped")
			continue
		}
		types = append(types, st)
	}
	for _, n := range sortedKeys(only) {
		log.Warn().Str("type", n).Msg("requested secret type not found in any configuration directory")
	}
	return types, nil
}

func build(e *entry, opts Options, log zerolog.Logger) (redact.SecretType, error) {
	st := redact.SecretType{Name: e.name, Finder: opts.Finders[e.name]}

	if src, ok := e.slots[KindPatterns]; ok {
		exprs := src.inlinePatterns()
		if src.inline == nil {
			lines, err := readLines(src.path)
			if err != nil {
				return st, err
			}
			exprs = lines
		}
		for _, expr := range exprs {
			p, err := redact.CompilePattern(expr)
			if err != nil {
				var ce *redact.ConfigError
				if errors.As(err, &ce) {
					ce.Type = e.name
				}
				return st, fmt.Errorf("%s: %w", src.path, err)
			}
			st.Patterns = append(st.Patterns, p)
		}
	}

	if src, ok := e.slots[KindSubstitutions]; ok {
		if src.inline != nil {
			st.Substitutions = cleanSubstitutions(src.inline.Substitutions)
		} else {
			subs, err := readSubstitutions(src.path, log)
			if err != nil {
				return st, err
			}
			st.Substitutions = subs
		}
	}

	if src, ok := e.slots[KindValidators]; ok {
		path := src.path
		if src.inline != nil {
			path = src.inline.Validator
			if !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(src.path), path)
			}
		}
		st.Validator = &redact.ExecValidator{Path: path, Timeout: opts.ValidatorTimeout}
	}
	return st, nil
}

func (s source) inlinePatterns() []string {
	if s.inline == nil {
		return nil
	}
	return s.inline.Patterns
}

// listFiles returns the sorted names of the regular files in dir, or nothing
// if dir does not exist.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, nil
		}
		if info, serr := os.Stat(dir); serr == nil && !info.IsDir() {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// readLines returns the trimmed, non-blank, non-comment lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

// readSubstitutions parses "secret = placeholder" lines, splitting on the
// last '='.
func readSubstitutions(path string, log zerolog.Logger) (map[string]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	subs := make(map[string]string, len(lines))
	for i, line := range lines {
		secret, placeholder, ok := ParseSubstitution(line)
		if !ok {
			log.Warn().Str("file", path).Int("entry", i+1).Msg("ignoring malformed substitution")
			continue
		}
		subs[secret] = placeholder
	}
	return subs, nil
}

// ParseSubstitution splits a "secret = placeholder" line on its last '='.
func ParseSubstitution(line string) (secret, placeholder string, ok bool) {
	i := strings.LastIndex(line, "=")
	if i < 0 {
		return "", "", false
	}
	secret = strings.TrimSpace(line[:i])
	placeholder = strings.TrimSpace(line[i+1:])
	if secret == "" {
		return "", "", false
	}
	return secret, placeholder, true
}

func readTypesFile(path string) ([]inlineType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var types []inlineType
	if err := yaml.Unmarshal(data, &types); err != nil {
		return nil, &redact.ConfigError{Reason: "parsing " + path, Err: err}
	}
	for _, t := range types {
		if t.Name == "" {
			return nil, &redact.ConfigError{Reason: path + ": secret type without a name"}
		}
		if !ValidTypeName(t.Name) {
			return nil, &redact.ConfigError{Type: t.Name, Reason: path + ": name must not contain path separators or be . or .."}
		}
	}
	return types, nil
}

// ValidTypeName reports whether name can be used as a file name inside a
// catalog directory.
func ValidTypeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func cleanSubstitutions(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
