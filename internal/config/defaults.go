package config

import (
	"time"

	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
	"github.com/justworkflowit/workflow-deployer/internal/retry"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
)

const (
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "DEPLOYER"

	DefaultStorageEndpoint = "s3.amazonaws.com"
	DefaultStorageRegion   = "us-east-1"
	DefaultCredentialNS    = "default"
	DefaultRegistryTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Configuration keys.
const (
	KeyStorageBucket       = "storage.bucket"
	KeyStorageEndpoint     = "storage.endpoint"
	KeyStorageRegion       = "storage.region"
	KeyStorageAccessKey    = "storage.accessKey"
	KeyStorageSecretKey    = "storage.secretKey"
	KeyStorageUseSSL       = "storage.useSSL"
	KeyStorageDir          = "storage.dir"
	KeyOrganizationID      = "organizationId"
	KeyCredentialSecret    = "credentialSecret"
	KeyCredentialKey       = "credentialKey"
	KeyCredentialNamespace = "credentialNamespace"
	KeyRegistryBaseURL     = "registryBaseUrl"
	KeyDefinitionKeys      = "definitionKeys"
	KeyIgnoreFailures      = "ignoreFailures"
	KeyRetryMaxAttempts    = "retry.maxAttempts"
	KeyRetryBaseDelay      = "retry.baseDelay"
	KeyPhysicalResourceID  = "physicalResourceId"
	KeyRegistryTimeout     = "registryTimeout"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
)

// Keys maps every configuration key to its environment variable.
var Keys = map[string]string{
	KeyStorageBucket:       "DEPLOYER_STORAGE_BUCKET",
	KeyStorageEndpoint:     "DEPLOYER_STORAGE_ENDPOINT",
	KeyStorageRegion:       "DEPLOYER_STORAGE_REGION",
	KeyStorageAccessKey:    "DEPLOYER_STORAGE_ACCESS_KEY",
	KeyStorageSecretKey:    "DEPLOYER_STORAGE_SECRET_KEY",
	KeyStorageUseSSL:       "DEPLOYER_STORAGE_USE_SSL",
	KeyStorageDir:          "DEPLOYER_STORAGE_DIR",
	KeyOrganizationID:      "DEPLOYER_ORGANIZATION_ID",
	KeyCredentialSecret:    "DEPLOYER_CREDENTIAL_SECRET",
	KeyCredentialKey:       "DEPLOYER_CREDENTIAL_KEY",
	KeyCredentialNamespace: "DEPLOYER_CREDENTIAL_NAMESPACE",
	KeyRegistryBaseURL:     "DEPLOYER_REGISTRY_BASE_URL",
	KeyDefinitionKeys:      "DEPLOYER_DEFINITION_KEYS",
	KeyIgnoreFailures:      "DEPLOYER_IGNORE_FAILURES",
	KeyRetryMaxAttempts:    "DEPLOYER_RETRY_MAX_ATTEMPTS",
	KeyRetryBaseDelay:      "DEPLOYER_RETRY_BASE_DELAY",
	KeyPhysicalResourceID:  "DEPLOYER_PHYSICAL_RESOURCE_ID",
	KeyRegistryTimeout:     "DEPLOYER_REGISTRY_TIMEOUT",
	KeyLogLevel:            "DEPLOYER_LOG_LEVEL",
	KeyLogFormat:           "DEPLOYER_LOG_FORMAT",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		KeyStorageEndpoint:     DefaultStorageEndpoint,
		KeyStorageRegion:       DefaultStorageRegion,
		KeyStorageUseSSL:       true,
		KeyCredentialKey:       secrets.DefaultKey,
		KeyCredentialNamespace: DefaultCredentialNS,
		KeyIgnoreFailures:      false,
		KeyRetryMaxAttempts:    retry.DefaultMaxAttempts,
		KeyRetryBaseDelay:      retry.DefaultBaseDelay.String(),
		KeyPhysicalResourceID:  lifecycle.DefaultPhysicalResourceID,
		KeyRegistryTimeout:     DefaultRegistryTimeout.String(),
		KeyLogLevel:            DefaultLogLevel,
		KeyLogFormat:           DefaultLogFormat,
	}
}
