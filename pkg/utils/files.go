package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// WriteFiles writes every file into dir or none of them: each file goes to
// a temporary name first and is renamed into place only after all of them
// were written. Files it replaces are kept aside until every rename
// succeeded and are put back otherwise.
func WriteFiles(dir string, files map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		if name != filepath.Base(name) {
			return fmt.Errorf("refusing to write %q outside %s", name, dir)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	temps := make(map[string]string, len(names))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, name := range names {
		f, err := os.CreateTemp(dir, "."+name+".tmp*")
		if err != nil {
			cleanup()
			return err
		}
		temps[name] = f.Name()
		if _, err := f.Write(files[name]); err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("failed to write %s: %v", name, err)
		}
		if err := f.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %v", name, err)
		}
		if err := os.Chmod(f.Name(), 0o644); err != nil {
			cleanup()
			return err
		}
	}

	var done []install
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			done[i].undo()
		}
		cleanup()
	}
	for _, name := range names {
		in := install{target: filepath.Join(dir, name)}
		if err := in.backup(dir, name); err != nil {
			rollback()
			return err
		}
		if err := os.Rename(temps[name], in.target); err != nil {
			in.restore()
			rollback()
			return err
		}
		delete(temps, name)
		done = append(done, in)
	}
	for _, in := range done {
		if in.saved != "" {
			os.Remove(in.saved)
		}
	}
	return nil
}

// install is one file renamed into place. saved holds the file it
// replaced, if any.
type install struct {
	target string
	saved  string
}

// backup moves an existing regular file at the target aside.
func (in *install) backup(dir, name string) error {
	fi, err := os.Lstat(in.target)
	if err != nil || !fi.Mode().IsRegular() {
		return nil
	}
	f, err := os.CreateTemp(dir, "."+name+".bak*")
	if err != nil {
		return err
	}
	f.Close()
	if err := os.Rename(in.target, f.Name()); err != nil {
		os.Remove(f.Name())
		return err
	}
	in.saved = f.Name()
	return nil
}

// restore puts the saved file back without touching the target otherwise.
func (in *install) restore() {
	if in.saved != "" {
		os.Rename(in.saved, in.target)
	}
}

// undo reverts a completed install.
func (in *install) undo() {
	if in.saved != "" {
		os.Rename(in.saved, in.target)
		return
	}
	os.Remove(in.target)
}

// RemoveStale deletes the regular files in dir that are not in keep and
// for which stale reports true. It returns the names it removed.
func RemoveStale(dir string, keep map[string][]byte, stale func(name string, data []byte) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if _, ok := keep[name]; ok || !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return removed, err
		}
		if !stale(name, data) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}
