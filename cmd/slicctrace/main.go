package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"goslicc/pkg/compiler"
	"goslicc/pkg/viewer"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("slicctrace", flag.ContinueOnError)
	fs.SetOutput(stderr)
	machine := fs.String("machine", "", "machine to replay (default: the first one declared)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: slicctrace [-machine name] spec.sm trace.txt")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	s, err := load(fs.Arg(0), fs.Arg(1), *machine)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	for !s.Done() {
		outs, _ := s.Step()
		for _, o := range outs {
			fmt.Fprintf(stdout, "%4d  %s\n", o.Step.Line, o)
		}
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Final states")
	for _, addr := range s.Addresses() {
		fmt.Fprintf(stdout, "  %-10s %s\n", addr, s.State(addr))
	}
	if w := s.Waiting(); w.Total() > 0 {
		fmt.Fprintln(stdout, "Still waiting")
		for _, addr := range w.Addresses() {
			fmt.Fprintf(stdout, "  %-10s %d message(s)\n", addr, w.Len(addr))
		}
	}
	return 0
}

func load(specPath, tracePath, name string) (*viewer.Session, error) {
	res, err := compiler.Compile("trace", specPath)
	if err != nil {
		return nil, err
	}
	if len(res.Program.Machines) == 0 {
		return nil, fmt.Errorf("%s declares no machine", specPath)
	}
	m := res.Program.Machines[0]
	if name != "" {
		var ok bool
		if m, ok = res.Program.Machine(name); !ok {
			return nil, fmt.Errorf("%s declares no machine %q", specPath, name)
		}
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	steps, err := viewer.ParseTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tracePath, err)
	}
	return viewer.NewSession(m, steps)
}
