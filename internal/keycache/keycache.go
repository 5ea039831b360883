// Package keycache caches derived SigV4 signing keys across transcription
// sessions started within the same process. A signing key depends only on
// (secret, date, region, service); many short-lived streaming sessions
// opened back-to-back against the same region within the same UTC day
// would otherwise each re-run the four-step HMAC derivation chain for an
// identical input. This is a local, in-process cache only -- a signing key
// is never meaningful across hosts, so there is no distributed backend.
package keycache

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	numCounters = 1e4
	maxCost     = 1 << 20 // 1 MiB of cached key material is generous headroom
	bufferItems = 64
)

var (
	once  sync.Once
	cache *ristretto.Cache[string, []byte]
)

func get() *ristretto.Cache[string, []byte] {
	once.Do(func() {
		c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: numCounters,
			MaxCost:     maxCost,
			BufferItems: bufferItems,
		})
		if err != nil {
			// Cache construction only fails on invalid config constants
			// above; a nil cache degrades DeriveOrGet to always-derive.
			cache = nil
			return
		}
		cache = c
	})
	return cache
}

// cacheKey never stores the secret itself -- only a hash of it, scoped by
// date/region/service so keys naturally expire in relevance once the date
// rolls over.
func cacheKey(secret, date, region, service string) string {
	h := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("%s:%s:%s:%s", hex.EncodeToString(h[:]), date, region, service)
}

// DeriveOrGet returns the SigV4 signing key for (secret, date, region,
// service), computing it via the standard HMAC chain on first use and
// serving cached copies thereafter.
func DeriveOrGet(_ context.Context, secret, date, region, service string) ([]byte, error) {
	c := get()
	key := cacheKey(secret, date, region, service)

	if c != nil {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
	}

	derived := Derive(secret, date, region, service)

	if c != nil {
		c.Set(key, derived, int64(len(derived)))
		c.Wait()
	}

	return derived, nil
}

// Derive computes the SigV4 signing key via the standard four-step HMAC
// chain: kDate -> kRegion -> kService -> kSigning.
func Derive(secret, date, region, service string) []byte {
	kDate := hmacSum([]byte("AWS4"+secret), date)
	kRegion := hmacSum(kDate, region)
	kService := hmacSum(kRegion, service)
	kSigning := hmacSum(kService, "aws4_request")
	return kSigning
}

func hmacSum(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
