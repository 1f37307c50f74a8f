package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// schemaVersion is part of every extract key. Bump it whenever the cached
// pipeline.Result encoding changes so stale entries from older binaries miss.
const schemaVersion = 1

// hashKey returns "kind:v<schema>:<sha256 of parts>". parts are JSON-encoded,
// so struct options hash by field name and reordering them is harmless.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:v%d:%s", kind, schemaVersion, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data. [FileCache] uses it to turn keys
// into file names.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
