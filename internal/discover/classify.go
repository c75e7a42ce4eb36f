package discover

import "strings"

// Format identifies one of the compiler's output formats, as passed to
// its -f flag.
type Format string

const (
	// FormatObj selects the geometry export.
	FormatObj Format = "obj"
	// FormatBVH selects the JSON spatial-index export.
	FormatBVH Format = "bvh"
)

// Formats lists all output formats in report order.
var Formats = []Format{FormatObj, FormatBVH}

// Role is the part a file plays within an example directory.
type Role int

const (
	// RoleUnrecognized marks files the harness ignores.
	RoleUnrecognized Role = iota
	// RoleScene marks the scene-description input.
	RoleScene
	// RoleGolden marks a recorded expected-output file for one format.
	RoleGolden
	// RoleExtraArgs marks the optional extra-arguments file.
	RoleExtraArgs
)

// extraArgsName is the reserved file name holding extra CLI tokens.
const extraArgsName = "args.txt"

// goldenPrefix is the reserved prefix for expected-output files.
const goldenPrefix = "out."

// Classify assigns a role to a bare file name per the example-tree
// convention: args.txt carries extra CLI tokens, out.*.obj and out.*.json
// are golden files for the obj and bvh formats, and any other *.yaml file
// is the scene input. The out. prefix is checked before the yaml suffix,
// so a file like out.scene.yaml is not a scene. The returned Format is
// meaningful only for RoleGolden.
func Classify(name string) (Role, Format) {
	if name == extraArgsName {
		return RoleExtraArgs, ""
	}
	if strings.HasPrefix(name, goldenPrefix) {
		switch {
		case strings.HasSuffix(name, ".obj"):
			return RoleGolden, FormatObj
		case strings.HasSuffix(name, ".json"):
			return RoleGolden, FormatBVH
		}
		return RoleUnrecognized, ""
	}
	if strings.HasSuffix(name, ".yaml") {
		return RoleScene, ""
	}
	return RoleUnrecognized, ""
}
