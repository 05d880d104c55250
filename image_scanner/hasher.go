package image_scanner

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

const (
	HashMD5  = "md5"
	HashXXH3 = "xxh3"

	chunkSize = 8192
)

// SupportedHashAlgorithms lists the 128-bit digests a manifest can be built with.
var SupportedHashAlgorithms = []string{HashMD5, HashXXH3}

// NormalizeHashAlgorithm lower-cases the name and defaults to md5.
func NormalizeHashAlgorithm(algorithm string) (string, error) {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		return HashMD5, nil
	}
	for _, supported := range SupportedHashAlgorithms {
		if algorithm == supported {
			return algorithm, nil
		}
	}
	return "", fmt.Errorf("unsupported hash algorithm '%s' (expected one of %s)", algorithm, strings.Join(SupportedHashAlgorithms, ", "))
}

// xxh3Hasher adapts xxh3's streaming hasher to return the 128-bit digest.
type xxh3Hasher struct {
	*xxh3.Hasher
}

func (h xxh3Hasher) Sum(b []byte) []byte {
	sum := h.Hasher.Sum128().Bytes()
	return append(b, sum[:]...)
}

func (h xxh3Hasher) Size() int {
	return 16
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case HashMD5:
		return md5.New(), nil
	case HashXXH3:
		return xxh3Hasher{xxh3.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm '%s'", algorithm)
	}
}

// HashFile digests the whole file in fixed-size chunks and returns lower-case hex.
func HashFile(fs afero.Fs, path string, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
