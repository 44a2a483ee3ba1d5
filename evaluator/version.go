package evaluator

// Version represents the current semantic version of the design-grader library.
//
// This constant follows semantic versioning format (MAJOR.MINOR.PATCH) and is
// updated with each release. Applications can use it for version logging,
// compatibility validation, or feature detection.
const Version = "0.1.0"

// VersionInfo encapsulates version metadata for the design-grader library.
type VersionInfo struct {
	// Version contains the semantic version string following semver format
	Version string

	// Name contains the canonical library name for identification purposes
	Name string
}

// GetVersion returns structured version information for the design-grader library.
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Name:    "design-grader",
	}
}
