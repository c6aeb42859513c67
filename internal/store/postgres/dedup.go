package postgres

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// dedupKey mirrors internal/store/memory's normalized-content dedup key so
// a mission's notes dedupe identically regardless of backend.
func dedupKey(note *maestro.Note) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(note.Content)), " ")
	sum := sha256.Sum256([]byte(normalized + "\x00" + note.SourceRef.DocumentID + note.SourceRef.ChunkID + note.SourceRef.URL))
	return hex.EncodeToString(sum[:])
}
