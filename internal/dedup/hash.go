// Package dedup computes the stable content hash used as the pipeline's
// deduplication key and change-detection fingerprint.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Hash returns the hex-encoded SHA-256 digest of v's canonical serialization.
// Structurally equal values always produce the same digest, regardless of map
// or field ordering at the call site. Any field change yields a new digest.
func Hash(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize renders v as JSON with all object keys sorted recursively.
// The value is round-tripped through encoding/json first so structs, maps and
// json.RawMessage all reduce to the same representation.
func Canonicalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}

	var b strings.Builder
	if err := writeCanonical(&b, decoded); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(keyJSON)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil

	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil

	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		b.Write(raw)
		return nil
	}
}
