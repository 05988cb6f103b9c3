package identity

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprinter derives the visitor fingerprint used for short-window
// duplicate suppression. It is a keyed one-way hash, not an identity.
type Fingerprinter struct {
	key []byte
}

func NewFingerprinter(salt string) *Fingerprinter {
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &Fingerprinter{key: key}
}

// Fingerprint hashes ip + "-" + userAgent.
func (f *Fingerprinter) Fingerprint(ip, userAgent string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// unreachable: the key is capped at blake2b.Size in NewFingerprinter
		panic(err)
	}
	h.Write([]byte(ip + "-" + userAgent))
	return hex.EncodeToString(h.Sum(nil))
}
