package compiler

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func declNames(decls []Decl) []string {
	var names []string
	for _, d := range decls {
		switch d := d.(type) {
		case *EnumDecl:
			names = append(names, d.Name)
		case *StructDecl:
			names = append(names, d.Name)
		case *MachineDecl:
			names = append(names, d.Name)
		}
	}
	return names
}

func TestLoadFilesSplicesIncludes(t *testing.T) {
	dir := writeSpecs(t, map[string]string{
		"main.sm":          "enumeration(A) { X; }\ninclude \"types/msgs.sm\";\nenumeration(D) { X; }\n",
		"types/msgs.sm":    "structure(B) { Address addr; }\ninclude \"common.sm\";\n",
		"types/common.sm":  "enumeration(C) { X; }\n",
		"unrelated/zzz.sm": "enumeration(Z) { X; }\n",
	})

	decls, sources, err := LoadFiles(filepath.Join(dir, "main.sm"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := declNames(decls), []string{"A", "B", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected declarations %v, got %v", want, got)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}
	if got := sources[2].Path; got != filepath.Join(dir, "types", "common.sm") {
		t.Errorf("unexpected include path %s", got)
	}
	// Positions name the file a declaration came from.
	if pos := decls[2].Position(); pos.File != sources[2].Path || pos.Line != 1 {
		t.Errorf("unexpected position %s", pos)
	}
}

func TestLoadFilesLoadsEachFileOnce(t *testing.T) {
	dir := writeSpecs(t, map[string]string{
		"main.sm":   "include \"left.sm\";\ninclude \"right.sm\";\n",
		"left.sm":   "include \"common.sm\";\nenumeration(L) { X; }\n",
		"right.sm":  "include \"common.sm\";\nenumeration(R) { X; }\n",
		"common.sm": "enumeration(C) { X; }\n",
	})

	decls, sources, err := LoadFiles(filepath.Join(dir, "main.sm"), filepath.Join(dir, "common.sm"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := declNames(decls), []string{"C", "L", "R"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected declarations %v, got %v", want, got)
	}
	if len(sources) != 4 {
		t.Errorf("expected 4 sources, got %d", len(sources))
	}
}

func TestLoadFilesErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "Cycle",
			files: map[string]string{
				"main.sm": "include \"a.sm\";\n",
				"a.sm":    "enumeration(A) { X; }\ninclude \"main.sm\";\n",
			},
			wantErr: `a.sm:2: error: circular include of "main.sm"`,
		},
		{
			name:    "SelfInclude",
			files:   map[string]string{"main.sm": "include \"main.sm\";\n"},
			wantErr: `circular include of "main.sm"`,
		},
		{
			name:    "Missing",
			files:   map[string]string{"main.sm": "\ninclude \"nope.sm\";\n"},
			wantErr: `main.sm:2: error: cannot include "nope.sm"`,
		},
		{
			name: "SyntaxInInclude",
			files: map[string]string{
				"main.sm": "include \"bad.sm\";\n",
				"bad.sm":  "enumeration(A) { X }\n",
			},
			wantErr: "bad.sm:1: syntax error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSpecs(t, tt.files)
			_, _, err := LoadFiles(filepath.Join(dir, "main.sm"))
			if err == nil {
				t.Fatal("expected an error")
			}
			assertContains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileWithIncludes(t *testing.T) {
	dir := writeSpecs(t, map[string]string{
		"proto.sm": "include \"msgs.sm\";\n" + `machine(M) {
  state_declaration(State) { I; }
  enumeration(Event) { E; }
  out_port(o, Msg);
}
`,
		"msgs.sm": "structure(Msg) { Address addr; }\n",
	})

	res, err := Compile("proto", filepath.Join(dir, "proto.sm"))
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, string(res.Files[TypesFile]), "type Msg struct {")
	assertContains(t, string(res.Files[TypesFile]), "generated by slicc from proto.sm.")
	if len(res.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(res.Sources))
	}
}
