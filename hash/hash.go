// Package hash implements the content hashing cache/key.go relies on to fold
// each input file's bytes into a job's cache key (spec 4.4). Grounded on the
// teacher's hash package.
package hash

// Hasher hashes objects, files, or strings to a hex digest. Distinct
// implementations (SHA1, SHA256) share this shape so cache.Opts can select
// one without the cache package caring which algorithm backs it.
type Hasher interface {
	// Object hashes obj's canonical JSON encoding.
	Object(obj interface{}) (string, error)

	// File hashes the bytes at path.
	File(path string) (string, error)

	// String hashes s directly.
	String(s string) (string, error)
}
