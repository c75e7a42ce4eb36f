// Package locate resolves the scene-builder executable produced by the
// compiler's build, preferring a release build over a debug build.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBinName is the executable name the compiler's build produces.
const DefaultBinName = "scene-builder"

// NotFoundError reports that no compiler binary exists at either
// candidate location.
type NotFoundError struct {
	BuildDir string
	Release  string
	Debug    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s binary; looked for release or debug builds under %s",
		filepath.Base(e.Release), e.BuildDir)
}

// Binary returns the path to the compiler executable under buildDir,
// checking <buildDir>/release/<name> first, then <buildDir>/debug/<name>.
// Both candidates must be regular files to qualify. When neither exists
// the returned error is a *NotFoundError naming the searched locations.
func Binary(buildDir, name string) (string, error) {
	if name == "" {
		name = DefaultBinName
	}

	release := filepath.Join(buildDir, "release", name)
	debug := filepath.Join(buildDir, "debug", name)

	if isRegularFile(release) {
		return release, nil
	}
	if isRegularFile(debug) {
		return debug, nil
	}

	return "", &NotFoundError{BuildDir: buildDir, Release: release, Debug: debug}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
