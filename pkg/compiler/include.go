package compiler

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source is one loaded specification file.
type Source struct {
	Path string
	Text string
}

// loader resolves include declarations. Included declarations are spliced in
// at the position of the include, each file is loaded at most once, and a
// file that (transitively) includes itself is rejected.
type loader struct {
	loaded  map[string]bool
	sources []Source
}

// LoadFiles reads and parses the given specification files and everything
// they include, returning the declarations in textual order.
func LoadFiles(paths ...string) ([]Decl, []Source, error) {
	ld := &loader{loaded: make(map[string]bool)}
	var decls []Decl
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, nil, err
		}
		ds, err := ld.load(abs, path, make(map[string]bool))
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, ds...)
	}
	return decls, ld.sources, nil
}

// load parses abs (displayed as name) and splices its includes.
func (ld *loader) load(abs, name string, stack map[string]bool) ([]Decl, error) {
	if ld.loaded[abs] {
		return nil, nil
	}
	ld.loaded[abs] = true

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", name, err)
	}
	ld.sources = append(ld.sources, Source{Path: name, Text: string(content)})

	raw, err := ParseSource(name, string(content))
	if err != nil {
		return nil, err
	}

	// A new stack copy per branch allows diamond includes.
	newStack := make(map[string]bool, len(stack)+1)
	for k, v := range stack {
		newStack[k] = v
	}
	newStack[abs] = true

	var decls []Decl
	for _, d := range raw {
		inc, ok := d.(*IncludeDecl)
		if !ok {
			decls = append(decls, d)
			continue
		}
		incAbs := filepath.Join(filepath.Dir(abs), inc.Path)
		if newStack[incAbs] {
			return nil, semanticErrorf(inc.Pos, "circular include of %q", inc.Path)
		}
		incName := filepath.Join(filepath.Dir(name), inc.Path)
		if _, err := os.Stat(incAbs); err != nil {
			return nil, semanticErrorf(inc.Pos, "cannot include %q: %v", inc.Path, err)
		}
		sub, err := ld.load(incAbs, incName, newStack)
		if err != nil {
			return nil, err
		}
		decls = append(decls, sub...)
	}
	return decls, nil
}
