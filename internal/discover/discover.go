// Package discover enumerates golden test cases from the example tree.
// Discovery is a pure stage: it touches only the filesystem layout and
// the args.txt contents, never the compiler, so it can be tested against
// a synthetic tree without spawning processes.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Case is one discovered example directory: a scene input, the golden
// files recorded for it, and any extra CLI tokens. A directory with a
// scene but no goldens still yields a Case; it contributes zero
// executions.
type Case struct {
	// Dir is the example directory, relative to the examples root.
	Dir string `json:"dir"`
	// Scene is the absolute path to the scene-description input.
	Scene string `json:"scene"`
	// Goldens maps each present output format to its golden file path.
	Goldens map[Format]string `json:"goldens"`
	// ExtraArgs holds tokens from args.txt, inserted before the scene
	// argument on the compiler command line.
	ExtraArgs []string `json:"extra_args,omitempty"`
}

// Executions returns the number of compiler invocations the case
// contributes, one per recorded golden.
func (c *Case) Executions() int {
	return len(c.Goldens)
}

// AmbiguityError reports a directory whose contents the convention
// cannot resolve: two scene files, or two goldens for the same format.
// Discovery fails loudly on ambiguity rather than picking one by
// traversal order.
type AmbiguityError struct {
	Dir    string
	What   string
	First  string
	Second string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous example directory %s: both %s and %s claim the %s role",
		e.Dir, e.First, e.Second, e.What)
}

// Discover walks every directory under root and returns one Case per
// directory containing a scene file, in traversal order (parents before
// children, siblings lexically). Directories without a scene file are
// skipped silently. The walk inspects only each directory's direct
// files; subdirectories are visited as their own candidates.
func Discover(root string) ([]Case, error) {
	var cases []Case

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		c, err := readDir(root, path)
		if err != nil {
			return err
		}
		if c != nil {
			cases = append(cases, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cases, nil
}

// readDir classifies the direct files of one directory. It returns nil
// when the directory holds no scene file.
func readDir(root, dir string) (*Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read example directory %s: %w", dir, err)
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}

	c := Case{Dir: rel, Goldens: make(map[Format]string)}
	var argsPath string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())

		role, format := Classify(e.Name())
		switch role {
		case RoleScene:
			if c.Scene != "" {
				return nil, &AmbiguityError{Dir: rel, What: "scene", First: c.Scene, Second: path}
			}
			c.Scene = path
		case RoleGolden:
			if prev, ok := c.Goldens[format]; ok {
				return nil, &AmbiguityError{Dir: rel, What: string(format) + " golden", First: prev, Second: path}
			}
			c.Goldens[format] = path
		case RoleExtraArgs:
			argsPath = path
		}
	}

	if c.Scene == "" {
		return nil, nil
	}

	if argsPath != "" {
		data, err := os.ReadFile(argsPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", argsPath, err)
		}
		c.ExtraArgs = strings.Fields(string(data))
	}

	return &c, nil
}
