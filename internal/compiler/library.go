package compiler

import "github.com/cespare/xxhash/v2"

// Library is the compiler's immutable standard library value. Engines fold
// it into every memoization key, so its fingerprint is computed once at
// construction rather than per query.
type Library struct {
	name    string
	version string
	hash    uint64
}

// NewLibrary builds a prehashed library value for the given scope name and
// version.
func NewLibrary(name, version string) *Library {
	digest := xxhash.New()
	_, _ = digest.WriteString(name)
	_, _ = digest.WriteString("\x00")
	_, _ = digest.WriteString(version)

	return &Library{
		name:    name,
		version: version,
		hash:    digest.Sum64(),
	}
}

// Name returns the library scope name.
func (l *Library) Name() string {
	return l.name
}

// Version returns the library version.
func (l *Library) Version() string {
	return l.version
}

// Fingerprint returns the precomputed content hash.
func (l *Library) Fingerprint() uint64 {
	return l.hash
}
