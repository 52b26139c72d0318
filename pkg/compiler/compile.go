package compiler

import (
	"path/filepath"
	"sort"
)

// Result is the output of a successful compilation.
type Result struct {
	Program *Program
	Sources []Source
	Files   map[string][]byte
}

// FileNames returns the generated file names in sorted order.
func (r *Result) FileNames() []string {
	names := make([]string, 0, len(r.Files))
	for n := range r.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compile loads the specification files (and their includes), checks them
// and generates package pkg. Nothing is returned unless every stage
// succeeded.
func Compile(pkg string, paths ...string) (*Result, error) {
	decls, sources, err := LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	return compileDecls(pkg, decls, sources)
}

// CompileSource compiles a single in-memory specification. It may not
// include other files.
func CompileSource(pkg, name, src string) (*Result, error) {
	decls, err := ParseSource(name, src)
	if err != nil {
		return nil, err
	}
	return compileDecls(pkg, decls, []Source{{Path: name, Text: src}})
}

func compileDecls(pkg string, decls []Decl, sources []Source) (*Result, error) {
	prog, err := Check(decls)
	if err != nil {
		return nil, err
	}
	origin := "<input>"
	if len(sources) > 0 {
		origin = filepath.Base(sources[0].Path)
	}
	files, err := Generate(prog, pkg, origin)
	if err != nil {
		return nil, err
	}
	return &Result{Program: prog, Sources: sources, Files: files}, nil
}
