package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const maxTenantIDLen = 64

// SanitizeTenantID maps an arbitrary tenant/session identifier onto a safe
// storage path component: lowercase [a-z0-9._-] only, no leading dots, never
// empty. Everything tenant-scoped (directories, table rows) is keyed by the
// sanitized form, so two identifiers that collapse to the same form share an
// index.
func SanitizeTenantID(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if len(s) > maxTenantIDLen {
		s = s[:maxTenantIDLen]
	}
	if s == "" {
		return "default"
	}
	return s
}

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %v", err)
	}
	return id.String(), nil
}

// CreateFolder makes the directory path, parents included.
func CreateFolder(path string) error {
	return os.MkdirAll(path, 0o755)
}
