package secrets

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// KubernetesResolver reads credentials from Kubernetes secrets.
type KubernetesResolver struct {
	client client.Reader
}

// NewKubernetesResolver creates a resolver backed by k8sClient.
func NewKubernetesResolver(k8sClient client.Reader) *KubernetesResolver {
	return &KubernetesResolver{client: k8sClient}
}

// NewKubernetesResolverFromEnvironment builds a client from the in-cluster
// configuration or the local kubeconfig.
func NewKubernetesResolverFromEnvironment() (*KubernetesResolver, error) {
	restConfig, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}

	k8sClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, err
	}
	return NewKubernetesResolver(k8sClient), nil
}

// Resolve implements Resolver.
func (r *KubernetesResolver) Resolve(ctx context.Context, ref Reference) (string, error) {
	logging.Debug("Secrets", "Resolving credential from secret %s/%s (key: %s)", ref.Namespace, ref.Name, ref.Key)

	secret := &corev1.Secret{}
	if err := r.client.Get(ctx, client.ObjectKey{Name: ref.Name, Namespace: ref.Namespace}, secret); err != nil {
		reason := "failed to get secret"
		if apierrors.IsNotFound(err) {
			reason = "secret not found"
		} else if apierrors.IsForbidden(err) {
			reason = "access to secret denied"
		}
		return "", &SecretUnavailableError{Ref: ref, Reason: reason, Err: err}
	}

	value, ok := secret.Data[ref.Key]
	if !ok {
		if s, found := secret.StringData[ref.Key]; found {
			value, ok = []byte(s), true
		}
	}
	if !ok {
		return "", &SecretUnavailableError{Ref: ref, Reason: "secret is missing key " + ref.Key}
	}
	if len(value) == 0 {
		return "", &SecretUnavailableError{Ref: ref, Reason: "secret has an empty value for key " + ref.Key}
	}

	return string(value), nil
}
