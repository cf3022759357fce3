package hash

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"hash"
	"io"
	"os"
)

type sha1Hasher struct{}

// SHA1 returns a Hasher backed by crypto/sha1, the cache package's default.
func SHA1() Hasher {
	return &sha1Hasher{}
}

func (hasher *sha1Hasher) Object(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return digestBytes(sha1.New(), data)
}

func (hasher *sha1Hasher) File(path string) (string, error) {
	return digestFile(sha1.New(), path)
}

func (hasher *sha1Hasher) String(s string) (string, error) {
	return digestBytes(sha1.New(), []byte(s))
}

func digestBytes(h hash.Hash, data []byte) (string, error) {
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestFile(h hash.Hash, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
