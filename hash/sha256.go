package hash

import (
	"crypto/sha256"
	"encoding/json"
)

type sha256Hasher struct{}

// SHA256 returns a Hasher backed by crypto/sha256, for callers that need a
// longer digest than SHA1 provides.
func SHA256() Hasher {
	return &sha256Hasher{}
}

func (hasher *sha256Hasher) Object(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return digestBytes(sha256.New(), data)
}

func (hasher *sha256Hasher) File(path string) (string, error) {
	return digestFile(sha256.New(), path)
}

func (hasher *sha256Hasher) String(s string) (string, error) {
	return digestBytes(sha256.New(), []byte(s))
}
