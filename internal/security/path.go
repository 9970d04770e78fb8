package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = fmt.Errorf("path traversal detected")
	ErrAbsolutePath  = fmt.Errorf("absolute paths are not allowed")
	ErrReservedName  = fmt.Errorf("reserved filename not allowed")
	ErrEmptyID       = fmt.Errorf("identifier cannot be empty")
	ErrInvalidID     = fmt.Errorf("identifier contains invalid characters")

	windowsReservedNames = map[string]bool{
		"con": true, "prn": true, "aux": true, "nul": true,
		"com1": true, "com2": true, "com3": true, "com4": true,
		"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
		"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
		"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
	}
)

const maxIDLength = 128

// ValidateID checks that a session or wireframe id can be used as a single
// path element and as a storage key.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, maxIDLength)
	}
	if filepath.IsAbs(id) {
		return ErrAbsolutePath
	}
	if strings.Contains(id, "..") {
		return ErrPathTraversal
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, r)
		}
	}
	if strings.HasPrefix(id, "-") || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: leading %q", ErrInvalidID, id[0])
	}
	if windowsReservedNames[strings.ToLower(id)] {
		return ErrReservedName
	}
	return nil
}
