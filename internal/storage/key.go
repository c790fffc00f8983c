package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	keyRoot         = "users"
	maxExtensionLen = 10
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

// AllocateKey returns a fresh object key: users/<owner>/<uuid>[.<ext>].
//
// The random segment is what makes keys unique, so repeated uploads of the
// same filename by the same owner never collide. Only a short alphanumeric
// extension survives from the filename.
func AllocateKey(ownerID, filename string) string {
	key := keyRoot + "/" + ownerSegment(ownerID) + "/" + uuid.NewString()
	if ext := safeExtension(filename); ext != "" {
		key += "." + ext
	}
	return key
}

func ownerSegment(ownerID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(ownerID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "anonymous"
	}
	return b.String()
}

func safeExtension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(strings.ReplaceAll(filename, `\`, "/")), ".")
	if ext == "" || len(ext) > maxExtensionLen {
		return ""
	}
	ext = strings.ToLower(ext)
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
