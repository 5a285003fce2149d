package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the song file extension
const Ext = ".yml"

// ProjectsDir returns the directory songs are saved to by name
func ProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stepseq", "projects"), nil
}

// Path returns the file a named song is saved to
func Path(name string) (string, error) {
	dir, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sanitizeFilename(name)+Ext), nil
}

// List returns the names of all saved songs
func List() ([]string, error) {
	dir, err := ProjectsDir()
	if err != nil {
		return nil, err
	}
	return listDir(dir)
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}

// sanitizeFilename replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	if name == "" {
		return "untitled"
	}
	return strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
}
