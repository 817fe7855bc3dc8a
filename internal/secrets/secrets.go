// Package secrets resolves the registry credential from a secret store.
//
// The credential is resolved once per invocation and never read from
// configuration directly. A secret still holding PlaceholderCredential means
// the real credential has not been supplied yet.
package secrets

import (
	"context"
	"fmt"
	"strings"
)

// PlaceholderCredential is the value a credential secret is created with
// before the real credential is supplied.
const PlaceholderCredential = "PLACEHOLDER_REPLACE_WITH_REAL_CREDENTIAL"

// DefaultKey is the secret data key holding the credential.
const DefaultKey = "api-key"

// Reference names a credential within a secret store.
type Reference struct {
	Namespace string
	Name      string
	Key       string
}

// ParseReference parses "namespace/name" or "name". An empty key selects
// DefaultKey.
func ParseReference(ref, key, defaultNamespace string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Reference{}, fmt.Errorf("credential secret reference is required")
	}

	r := Reference{Namespace: defaultNamespace, Name: ref, Key: key}
	if ns, name, found := strings.Cut(ref, "/"); found {
		if ns == "" || name == "" || strings.Contains(name, "/") {
			return Reference{}, fmt.Errorf("invalid credential secret reference %q, expected namespace/name", ref)
		}
		r.Namespace, r.Name = ns, name
	}
	if r.Namespace == "" {
		r.Namespace = "default"
	}
	if r.Key == "" {
		r.Key = DefaultKey
	}
	return r, nil
}

func (r Reference) String() string {
	return r.Namespace + "/" + r.Name + "#" + r.Key
}

// Resolver returns the credential value for a reference.
type Resolver interface {
	Resolve(ctx context.Context, ref Reference) (string, error)
}

// SecretUnavailableError reports that the credential could not be resolved.
type SecretUnavailableError struct {
	Ref    Reference
	Reason string
	Err    error
}

func (e *SecretUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential %s unavailable: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("credential %s unavailable: %s", e.Ref, e.Reason)
}

func (e *SecretUnavailableError) Unwrap() error {
	return e.Err
}

// IsPlaceholder reports whether value is the bootstrap placeholder.
func IsPlaceholder(value string) bool {
	return strings.TrimSpace(value) == PlaceholderCredential
}
