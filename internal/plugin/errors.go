package plugin

import "fmt"

// ChecksumMismatchError is returned before any generator code runs when the
// fetched bytes do not hash to the configured digest.
type ChecksumMismatchError struct {
	Source   string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for generator %s: got sha256 %s, expected %s", e.Source, e.Actual, e.Expected)
}

// PathTraversalError means the generator asked for a file outside the output
// root. Nothing is written when it is returned.
type PathTraversalError struct {
	Path string
	Root string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("generator returned invalid path %q: cannot create a file outside %s", e.Path, e.Root)
}

// GeneratorError carries a failure the generator reported itself.
type GeneratorError struct {
	Message string
}

func (e *GeneratorError) Error() string {
	return "generator failed: " + e.Message
}
