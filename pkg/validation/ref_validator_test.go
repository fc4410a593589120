package validation

import (
	"testing"

	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
)

func TestNewRefValidator(t *testing.T) {
	validator := NewRefValidator()
	if validator == nil {
		t.Fatal("Expected non-nil validator")
	}
	if len(validator.allowedSchemes) != 2 {
		t.Errorf("Expected 2 schemes, got %d", len(validator.allowedSchemes))
	}
	if len(validator.allowedHosts) != 0 {
		t.Errorf("Expected no host restriction, got %v", validator.allowedHosts)
	}
}

func TestValidateRef(t *testing.T) {
	validator := NewRefValidator()

	tests := []struct {
		name     string
		path     string
		url      string
		wantType apperrors.ErrorType
	}{
		{"path only", "uploads/face.jpg", "", ""},
		{"url only", "", "https://example.com/face.png", ""},
		{"neither", "", "  ", apperrors.ErrorTypeValidation},
		{"both", "face.jpg", "https://example.com/face.png", apperrors.ErrorTypeValidation},
		{"bad extension", "face.gif", "", apperrors.ErrorTypeInvalidImagePath},
		{"bad scheme", "", "ftp://example.com/face.png", apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRef(tt.path, tt.url)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestValidateImagePath(t *testing.T) {
	validator := NewRefValidator()

	valid := []string{"face.jpg", "/tmp/Face.JPEG", "dir/photo.png"}
	for _, p := range valid {
		if err := validator.ValidateImagePath(p); err != nil {
			t.Errorf("Expected %q to be valid, got %v", p, err)
		}
	}

	invalid := []string{"", "   ", "face", "face.bmp", "face\x00.jpg"}
	for _, p := range invalid {
		err := validator.ValidateImagePath(p)
		if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImagePath) {
			t.Errorf("Expected invalid_image_path for %q, got %v", p, err)
		}
	}
}

func TestValidateImageURL_ValidURLs(t *testing.T) {
	validator := NewRefValidator()

	validURLs := []string{
		"http://example.com/image.jpg",
		"https://example.com/image.png",
		"HTTPS://subdomain.example.com/path/to/image.png",
		"http://192.168.1.1:8080/image.jpg",
	}

	for _, u := range validURLs {
		if err := validator.ValidateImageURL(u); err != nil {
			t.Errorf("Expected valid URL %s to pass validation, got error: %v", u, err)
		}
	}
}

func TestValidateImageURL_Invalid(t *testing.T) {
	validator := NewRefValidator()

	invalid := []string{
		"",
		"://missing-scheme",
		"https://",
		"file:///etc/passwd",
		"javascript:alert(1)",
	}

	for _, u := range invalid {
		err := validator.ValidateImageURL(u)
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error for %q, got %v", u, err)
		}
	}
}

func TestValidateImageURL_RestrictedHosts(t *testing.T) {
	validator := NewRefValidatorWithOptions([]string{"https"}, []string{"cdn.example.com"})

	if err := validator.ValidateImageURL("https://CDN.example.com:443/face.jpg"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateImageURL("https://evil.com/face.jpg"); err == nil {
		t.Error("Expected disallowed host to fail")
	}
	if err := validator.ValidateImageURL("http://cdn.example.com/face.jpg"); err == nil {
		t.Error("Expected disallowed scheme to fail")
	}
}
