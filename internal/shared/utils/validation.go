package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// String length limits
const (
	MaxNameLength     = 256
	MaxEndpointLength = 2048
)

// Regular expressions for validation
var (
	// PackagePattern allows dotted identifiers such as com.example.mail
	PackagePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z0-9_]+)*$`)
	// ShortNamePattern allows package/.Class and package/fully.qualified.Class
	ShortNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]*/[a-zA-Z0-9_.$]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidatePackageName validates a package name
func ValidatePackageName(name string) error {
	if err := ValidateString(name, "package", 1, MaxNameLength, true); err != nil {
		return err
	}
	if !PackagePattern.MatchString(name) {
		return fmt.Errorf("package %q is not a dotted identifier", name)
	}
	return nil
}

// ValidateShortName validates a component short name
func ValidateShortName(name string) error {
	if err := ValidateString(name, "short_name", 3, MaxNameLength, true); err != nil {
		return err
	}
	if !ShortNamePattern.MatchString(name) {
		return fmt.Errorf("short_name %q must look like package/.Class", name)
	}
	return nil
}

// ValidateStartRequest validates the names in an activity launch.
func ValidateStartRequest(req types.StartRequest) error {
	if err := ValidatePackageName(req.PackageName); err != nil {
		return err
	}
	if err := ValidateShortName(req.ShortName); err != nil {
		return err
	}
	return ValidateString(req.Affinity, "affinity", 1, MaxNameLength, false)
}

// ValidateEndpoint validates an optional http(s) dump endpoint
func ValidateEndpoint(endpoint string) error {
	if err := ValidateString(endpoint, "endpoint", 0, MaxEndpointLength, false); err != nil {
		return err
	}
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host")
	}
	return nil
}
