package config

import (
	"time"

	"github.com/justworkflowit/workflow-deployer/internal/retry"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/internal/source"
)

// Config is the complete deployer configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`

	OrganizationID      string   `yaml:"organizationId"`
	CredentialSecret    string   `yaml:"credentialSecret"`
	CredentialKey       string   `yaml:"credentialKey"`
	CredentialNamespace string   `yaml:"credentialNamespace"`
	RegistryBaseURL     string   `yaml:"registryBaseUrl"`
	DefinitionKeys      []string `yaml:"definitionKeys"`
	IgnoreFailures      bool     `yaml:"ignoreFailures"`
	PhysicalResourceID  string   `yaml:"physicalResourceId"`

	RegistryTimeout time.Duration `yaml:"registryTimeout"`
	Retry           RetryConfig   `yaml:"retry"`
	Log             LogConfig     `yaml:"log"`
}

// StorageConfig locates the definition blobs. Dir selects a local directory
// instead of a bucket.
type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
	Dir       string `yaml:"dir"`
}

// RetryConfig tunes version registration retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Minio returns the bucket settings.
func (s StorageConfig) Minio() source.MinioConfig {
	return source.MinioConfig{
		Endpoint:  s.Endpoint,
		Region:    s.Region,
		Bucket:    s.Bucket,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		UseSSL:    s.UseSSL,
	}
}

// UsesDirectory reports whether definitions are read from a local directory.
func (s StorageConfig) UsesDirectory() bool {
	return s.Dir != ""
}

// RetryPolicy returns the retry policy for version registration.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.Retry.MaxAttempts, BaseDelay: c.Retry.BaseDelay}
}

// CredentialReference returns the location of the registry credential.
func (c *Config) CredentialReference() (secrets.Reference, error) {
	return secrets.ParseReference(c.CredentialSecret, c.CredentialKey, c.CredentialNamespace)
}
