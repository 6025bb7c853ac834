// Package mtl reads the Landsat Level-1 MTL metadata file.
//
// An MTL file is a tree of GROUP = NAME ... END_GROUP = NAME blocks holding
// KEY = VALUE lines and closed by a single END. Values are numbers, dates or
// double-quoted strings.
package mtl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("mtl: malformed metadata")

// File is a parsed MTL document. Keys are looked up across every group in the
// order they appear in the file, which is how the product groups are laid out.
type File struct {
	// Header is the outermost group, L1_METADATA_FILE or LANDSAT_METADATA_FILE.
	Header string
	groups []group
}

type group struct {
	path   string
	values map[string]string
}

// Open parses the MTL file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Find returns the single *_MTL.txt file in dir.
func Find(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_MTL.txt"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no *_MTL.txt file in %s", dir)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("found %d MTL files in %s, expected one", len(matches), dir)
}

func Parse(r io.Reader) (*File, error) {
	out := &File{}
	var stack []string
	current := -1
	ended := false

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if ended {
			return nil, fmt.Errorf("%w: line %d: content after END", ErrSyntax, line)
		}
		if text == "END" {
			ended = true
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected KEY = VALUE, got %q", ErrSyntax, line, text)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" {
			return nil, fmt.Errorf("%w: line %d: empty key", ErrSyntax, line)
		}

		switch key {
		case "GROUP":
			if len(stack) == 0 && out.Header == "" {
				out.Header = value
			}
			stack = append(stack, value)
			out.groups = append(out.groups, group{path: strings.Join(stack, "/"), values: map[string]string{}})
			current = len(out.groups) - 1
		case "END_GROUP":
			if len(stack) == 0 || stack[len(stack)-1] != value {
				return nil, fmt.Errorf("%w: line %d: END_GROUP = %s does not close an open group", ErrSyntax, line, value)
			}
			stack = stack[:len(stack)-1]
			current = out.reopen(stack)
		default:
			if current < 0 {
				return nil, fmt.Errorf("%w: line %d: %s outside of any group", ErrSyntax, line, key)
			}
			v, err := unquote(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
			}
			out.groups[current].values[key] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: group %s is never closed", ErrSyntax, stack[len(stack)-1])
	}
	if out.Header == "" {
		return nil, fmt.Errorf("%w: no GROUP found", ErrSyntax)
	}
	return out, nil
}

// reopen finds the group keys go to once an inner group closes.
func (f *File) reopen(stack []string) int {
	if len(stack) == 0 {
		return -1
	}
	path := strings.Join(stack, "/")
	for i := len(f.groups) - 1; i >= 0; i-- {
		if f.groups[i].path == path {
			return i
		}
	}
	return -1
}

func unquote(v string) (string, error) {
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	if len(v) < 2 || !strings.HasSuffix(v, `"`) {
		return "", fmt.Errorf("unterminated string %s", v)
	}
	return v[1 : len(v)-1], nil
}

// Get returns the first value stored under key in any group.
func (f *File) Get(key string) (string, bool) {
	for _, g := range f.groups {
		if v, ok := g.values[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Group returns the keys of the group with the given name, at any depth.
func (f *File) Group(name string) (map[string]string, bool) {
	for _, g := range f.groups {
		if g.path == name || strings.HasSuffix(g.path, "/"+name) {
			return g.values, true
		}
	}
	return nil, false
}

// Float parses the value of key as a number.
func (f *File) Float(key string) (float64, bool, error) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s = %q is not a number", ErrSyntax, key, v)
	}
	return x, true, nil
}
