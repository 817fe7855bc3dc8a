// Package config loads the deployer configuration.
//
// Values come from an optional YAML file and from environment variables
// prefixed DEPLOYER_, with the environment taking precedence. Every key has
// an explicit environment name, listed in Keys.
//
// # Example
//
//	storage:
//	  bucket: workflow-definitions
//	  region: eu-west-1
//	organizationId: org-123
//	credentialSecret: deployer/registry-credential
//	registryBaseUrl: https://api.justworkflowit.com
//	definitionKeys: '["orders.json", "invoices.json"]'
//	retry:
//	  maxAttempts: 5
//	  baseDelay: 500ms
//
// definitionKeys is a JSON array encoded as a string, matching the
// environment form; a plain YAML list is accepted as well.
package config
