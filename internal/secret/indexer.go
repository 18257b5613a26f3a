package secret

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/apetrenko/tgfactor/internal/model"
)

// Indexer computes a keyed, deterministic digest of a plaintext used
// purely as an equality lookup key. An index hit is never proof of
// possession: callers must still confirm with Hasher.Verify against
// the salted digest.
type Indexer struct {
	key []byte
}

// NewIndexer creates an Indexer keyed by the given process-wide
// secret. An empty key is a configuration error, not a degraded mode.
func NewIndexer(key string) (*Indexer, error) {
	if key == "" {
		return nil, model.ErrNotConfigured
	}
	return &Indexer{key: []byte(key)}, nil
}

// Index returns the hex HMAC-SHA256 of plaintext under the process
// key. Deterministic: equal plaintexts yield equal keys.
func (i *Indexer) Index(plaintext string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}
