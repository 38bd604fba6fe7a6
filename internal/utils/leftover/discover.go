package leftover

import (
	"context"
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/logging"
)

// Discover lists the managed Deployments and standalone Pods in namespace. An
// empty namespace searches all namespaces.
//
// Pods owned by a controller are skipped: they belong to a Deployment that is
// reported on its own. The result is sorted by namespace, run, kind and name.
func Discover(ctx context.Context, k8sClient client.Client, namespace string) ([]Object, error) {
	logger := ctrl.LoggerFrom(ctx)

	opts := []client.ListOption{
		client.MatchingLabels{constants.ManagedByLabel: constants.ManagedByValue},
	}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}

	deployList := &appsv1.DeploymentList{}
	if err := k8sClient.List(ctx, deployList, opts...); err != nil {
		return nil, fmt.Errorf("listing managed deployments: %w", err)
	}
	podList := &corev1.PodList{}
	if err := k8sClient.List(ctx, podList, opts...); err != nil {
		return nil, fmt.Errorf("listing managed pods: %w", err)
	}

	objects := make([]Object, 0, len(deployList.Items))
	for i := range deployList.Items {
		deploy := &deployList.Items[i]
		objects = append(objects, Object{
			Kind:      KindDeployment,
			Namespace: deploy.Namespace,
			Name:      deploy.Name,
			Role:      GetRole(deploy.Labels),
			RunID:     deploy.Labels[constants.RunLabel],
			Replicas:  ptr.Deref(deploy.Spec.Replicas, 1),
			Created:   deploy.CreationTimestamp.Time,
		})
	}
	for i := range podList.Items {
		pod := &podList.Items[i]
		if metav1.GetControllerOf(pod) != nil {
			continue
		}
		objects = append(objects, Object{
			Kind:      KindPod,
			Namespace: pod.Namespace,
			Name:      pod.Name,
			Role:      GetRole(pod.Labels),
			RunID:     pod.Labels[constants.RunLabel],
			Replicas:  1,
			Created:   pod.CreationTimestamp.Time,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i], objects[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.RunID != b.RunID {
			return a.RunID < b.RunID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})

	logger.V(logging.DEBUG).Info("Discovered leftover objects",
		"namespace", namespace,
		"deployments", len(deployList.Items),
		"pods", len(podList.Items),
		"leftovers", len(objects))
	return objects, nil
}

// CleanupCommands returns one kubectl command per object.
func CleanupCommands(objects []Object) []string {
	commands := make([]string, 0, len(objects))
	for _, obj := range objects {
		kind := "deployment"
		if obj.Kind == KindPod {
			kind = "pod"
		}
		commands = append(commands, fmt.Sprintf("kubectl -n %s delete %s %s", obj.Namespace, kind, obj.Name))
	}
	return commands
}
