package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// FieldError describes one invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
}

// ValidationError lists every invalid configuration value.
type ValidationError struct {
	Fields []FieldError
}

func (ve *ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "no validation errors"
	}
	if len(ve.Fields) == 1 {
		return "invalid configuration: " + ve.Fields[0].Error()
	}

	messages := make([]string, 0, len(ve.Fields))
	for _, fe := range ve.Fields {
		messages = append(messages, fe.Error())
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(messages, "; "))
}

// Has reports whether field is among the invalid values.
func (ve *ValidationError) Has(field string) bool {
	for _, fe := range ve.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate checks the configuration and returns a *ValidationError when any
// value is invalid.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (c *Config) validate() []FieldError {
	var errs []FieldError
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Storage.UsesDirectory() {
		if c.Storage.Bucket == "" {
			add(KeyStorageBucket, "is required unless %s is set", KeyStorageDir)
		}
		if c.Storage.Endpoint == "" {
			add(KeyStorageEndpoint, "is required")
		} else if strings.Contains(c.Storage.Endpoint, "://") {
			add(KeyStorageEndpoint, "must be a host name without scheme, got %q", c.Storage.Endpoint)
		}
	}

	if c.OrganizationID == "" {
		add(KeyOrganizationID, "is required")
	}
	if c.CredentialSecret == "" {
		add(KeyCredentialSecret, "is required")
	} else if _, err := c.CredentialReference(); err != nil {
		add(KeyCredentialSecret, "%v", err)
	}

	if c.RegistryBaseURL == "" {
		add(KeyRegistryBaseURL, "is required")
	} else if u, err := url.Parse(c.RegistryBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add(KeyRegistryBaseURL, "must be an absolute http or https URL, got %q", c.RegistryBaseURL)
	}

	if c.DefinitionKeys == nil {
		add(KeyDefinitionKeys, "is required")
	}
	for i, key := range c.DefinitionKeys {
		if strings.TrimSpace(key) == "" {
			add(KeyDefinitionKeys, "element %d must not be empty", i)
		}
	}

	if c.Retry.MaxAttempts < 1 {
		add(KeyRetryMaxAttempts, "must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		add(KeyRetryBaseDelay, "must not be negative, got %s", c.Retry.BaseDelay)
	}
	if c.RegistryTimeout <= 0 {
		add(KeyRegistryTimeout, "must be positive, got %s", c.RegistryTimeout)
	}
	if c.PhysicalResourceID == "" {
		add(KeyPhysicalResourceID, "is required")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add(KeyLogLevel, "%v", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		add(KeyLogFormat, "%v", err)
	}
	return errs
}
