package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "uuid", id: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{name: "underscore and dot", id: "wf_1.v2"},
		{name: "empty", id: "", wantErr: ErrEmptyID},
		{name: "absolute", id: "/etc/passwd", wantErr: ErrAbsolutePath},
		{name: "traversal", id: "a..b", wantErr: ErrPathTraversal},
		{name: "separator", id: "a/b", wantErr: ErrInvalidID},
		{name: "backslash", id: "a\\b", wantErr: ErrInvalidID},
		{name: "space", id: "a b", wantErr: ErrInvalidID},
		{name: "leading hyphen", id: "-rf", wantErr: ErrInvalidID},
		{name: "leading dot", id: ".hidden", wantErr: ErrInvalidID},
		{name: "reserved", id: "CON", wantErr: ErrReservedName},
		{name: "too long", id: strings.Repeat("a", maxIDLength+1), wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateID(%q) error = %v, want nil", tt.id, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateID(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
