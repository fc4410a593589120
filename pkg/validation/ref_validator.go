package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
)

// ImageExtensions are the file extensions accepted for local image paths.
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// RefValidator checks caller-supplied image references before any I/O happens.
type RefValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewRefValidator accepts http and https URLs on any host.
func NewRefValidator() *RefValidator {
	return &RefValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewRefValidatorWithOptions restricts URL schemes and hosts. Empty hosts allows all.
func NewRefValidatorWithOptions(schemes []string, hosts []string) *RefValidator {
	return &RefValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateRef requires exactly one of path and imageURL.
func (v *RefValidator) ValidateRef(path, imageURL string) error {
	path, imageURL = strings.TrimSpace(path), strings.TrimSpace(imageURL)
	switch {
	case path == "" && imageURL == "":
		return apperrors.NewValidationError("either path or url is required", nil)
	case path != "" && imageURL != "":
		return apperrors.NewValidationError("path and url are mutually exclusive", nil)
	case path != "":
		return v.ValidateImagePath(path)
	}
	return v.ValidateImageURL(imageURL)
}

// ValidateImagePath rejects empty paths and files that are not JPEG or PNG by name.
func (v *RefValidator) ValidateImagePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewInvalidImagePathError(fmt.Errorf("empty path"))
	}
	if strings.ContainsRune(path, 0) {
		return apperrors.NewInvalidImagePathError(fmt.Errorf("path contains NUL byte"))
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(ImageExtensions, ext) {
		return apperrors.NewInvalidImagePathError(fmt.Errorf("unsupported extension %q", ext))
	}
	return nil
}

// ValidateImageURL validates if the provided URL is acceptable for image processing
func (v *RefValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

func (v *RefValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed matches hostnames case-insensitively, ignoring ports.
func (v *RefValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
