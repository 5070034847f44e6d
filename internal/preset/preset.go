// Package preset loads shot layout presets, built-in and user-provided.
package preset

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/flipdrill/internal/sequence"
)

//go:embed presets/*.json
var builtinFS embed.FS

// Preset names a loadable shot layout.
type Preset struct {
	Name    string
	Builtin bool
	Path    string
}

// List returns built-in presets followed by user presets from dir, both
// sorted by name. A user preset with the same name as a built-in shadows it.
// A missing or unreadable user dir is not an error.
func List(dir string) ([]Preset, error) {
	entries, err := builtinFS.ReadDir("presets")
	if err != nil {
		return nil, err
	}
	byName := map[string]Preset{}
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		byName[name] = Preset{Name: name, Builtin: true}
	}

	if dir != "" {
		userEntries, err := os.ReadDir(dir)
		if err == nil {
			for _, entry := range userEntries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				name := strings.TrimSuffix(entry.Name(), ".json")
				byName[name] = Preset{Name: name, Path: filepath.Join(dir, entry.Name())}
			}
		}
	}

	presets := make([]Preset, 0, len(byName))
	for _, p := range byName {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets, nil
}

// Load parses the named preset into a sequence. User presets shadow
// built-ins of the same name.
func Load(name, dir string) (*sequence.Sequence, error) {
	if dir != "" {
		path := filepath.Join(dir, name+".json")
		if data, err := os.ReadFile(path); err == nil {
			seq, err := sequence.Import(data)
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", name, err)
			}
			return seq, nil
		}
	}
	data, err := builtinFS.ReadFile("presets/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	seq, err := sequence.Import(data)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return seq, nil
}
