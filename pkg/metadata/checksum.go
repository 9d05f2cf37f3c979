// Package metadata attaches file facts (size, timestamps, checksum, symlink
// target, binary detection) to finder results after discovery.
package metadata

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"sort"
	"strings"
)

var algorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
	"crc32":  func() hash.Hash { return crc32.NewIEEE() },
}

// Algorithms lists the supported checksum algorithm names.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for n := range algorithms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Checksum returns the hex digest of the file at path.
func Checksum(path, algorithm string) (string, error) {
	newHash, ok := algorithms[strings.ToLower(algorithm)]
	if !ok {
		return "", fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := newHash()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
