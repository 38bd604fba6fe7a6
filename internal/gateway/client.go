package gateway

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// NewScheme returns a scheme with the built-in Kubernetes types registered.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}

// RESTConfig resolves cluster credentials. An explicit kubeconfig path wins,
// then $KUBECONFIG and ~/.kube/config, then the in-cluster service account.
func RESTConfig(kubeconfig, kubeContext string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}

	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	return config, nil
}

// NewClient builds a controller-runtime client for the given kubeconfig and context.
func NewClient(kubeconfig, kubeContext string) (client.Client, error) {
	config, err := RESTConfig(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}
	k8sClient, err := client.New(config, client.Options{Scheme: NewScheme()})
	if err != nil {
		return nil, fmt.Errorf("creating kubernetes client: %w", err)
	}
	return k8sClient, nil
}
