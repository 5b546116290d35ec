// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHashLength is the number of hex characters kept from the digest.
const ContentHashLength = 32

// ContentHash returns the natural key of a record: the lowercase hex MD5
// digest of its payload, truncated to ContentHashLength. MD5 keeps keys
// compatible with rows already in the store.
func ContentHash(payload string) string {
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:ContentHashLength]
}
