package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"goslicc/pkg/compiler"
	"goslicc/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("slicc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", ".", "output directory for the generated Go files")
	pkg := fs.String("pkg", "", "package name of the generated files (default: base name of -o)")
	dumpAST := fs.Bool("dump-ast", false, "print the parsed declarations")
	dumpTable := fs.Bool("dump-table", false, "print the transition table of every machine")
	dryRun := fs.Bool("n", false, "compile but do not write any file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: slicc [flags] file.sm...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if *pkg == "" {
		full, _, err := utils.GetPathInfo(*outDir)
		if err != nil {
			fmt.Fprintln(stderr, "output directory:", err)
			return 1
		}
		*pkg = filepath.Base(full)
	}

	if *dumpAST {
		decls, _, err := compiler.LoadFiles(fs.Args()...)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, "AST")
		for _, d := range decls {
			fmt.Fprintln(stdout, " ", d)
		}
		fmt.Fprintln(stdout)
	}

	res, err := compiler.Compile(*pkg, fs.Args()...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *dumpTable {
		for _, m := range res.Program.Machines {
			fmt.Fprint(stdout, m.Table)
			fmt.Fprintln(stdout)
		}
	}

	if *dryRun {
		for _, name := range res.FileNames() {
			fmt.Fprintln(stdout, filepath.Join(*outDir, name))
		}
		return 0
	}
	if err := utils.WriteFiles(*outDir, res.Files); err != nil {
		fmt.Fprintf(stderr, "failed to write output to %q: %v\n", *outDir, err)
		return 1
	}
	removed, err := utils.RemoveStale(*outDir, res.Files, func(name string, data []byte) bool {
		return strings.HasSuffix(name, ".go") && compiler.IsGenerated(data)
	})
	for _, name := range removed {
		fmt.Fprintf(stdout, "removed stale %s\n", filepath.Join(*outDir, name))
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to clean %q: %v\n", *outDir, err)
		return 1
	}
	fmt.Fprintf(stdout, "generated %d file(s) -> %s\n", len(res.Files), *outDir)
	return 0
}
