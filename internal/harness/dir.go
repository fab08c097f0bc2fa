package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoScenarios is returned by RunDir when no scenario file matched.
var ErrNoScenarios = errors.New("no scenarios found")

// FileResult is the outcome of one scenario file.
type FileResult struct {
	Path     string
	Scenario *Scenario
	Result   *Result

	// Err is a load or setup failure; Result is nil when it is set.
	Err error
}

// Passed reports whether the file loaded and every check held.
func (f FileResult) Passed() bool {
	return f.Err == nil && f.Result != nil && f.Result.Pass
}

// RunDir runs every *.yaml and *.yml scenario under dir in lexical order.
// When filter is non-empty only scenarios whose name contains it are run.
// Returns ErrNoScenarios if nothing matched.
func RunDir(ctx context.Context, dir, filter string) ([]FileResult, error) {
	paths, err := scenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []FileResult
	for _, path := range paths {
		fr := FileResult{Path: path}
		fr.Scenario, fr.Err = LoadScenario(path)
		if fr.Err == nil && filter != "" && !strings.Contains(fr.Scenario.Name, filter) {
			continue
		}
		if fr.Err == nil {
			fr.Result, fr.Err = Run(ctx, fr.Scenario)
		}
		out = append(out, fr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoScenarios)
	}
	return out, nil
}

func scenarioFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
