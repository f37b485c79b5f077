package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "1808728802", false},
		{"short numeric", "1681170", false},
		{"empty", "", true},
		{"letters", "abc123", true},
		{"url", "https://steamcommunity.com/sharedfiles/filedetails/?id=1", true},
		{"negative", "-1", true},
		{"too long", strings.Repeat("1", 21), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidIdentifier) {
				t.Errorf("expected INVALID_IDENTIFIER, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name     string
		doc      []byte
		maxBytes int64
		wantErr  bool
	}{
		{"empty", nil, 0, false},
		{"html", []byte("<html><body>mods</body></html>"), 0, false},
		{"at limit", []byte("12345"), 5, false},
		{"over limit", []byte("123456"), 5, true},
		{"latin-1 accent", []byte("Caf\xe9 mod pack"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc, tt.maxBytes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDocument) {
				t.Errorf("expected INVALID_DOCUMENT, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateSubmitter(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"discord snowflake", "123456789012345678", false},
		{"prefixed", "discord:42", false},
		{"empty", "", true},
		{"whitespace", "user 1", true},
		{"control", "user\x00", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmitter("submitter", tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubmitter(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://steamcommunity.com/sharedfiles/filedetails/", false},
		{"http", "http://localhost:8080/", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"javascript", "javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidDocument,
		ErrCodeInvalidIdentifier,
		ErrCodeInvalidFormat,
		ErrCodeInvalidConfig,
		ErrCodeNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeStorage,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
