package gateway

import (
	"context"
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/llm-d/llm-d-capacity-probe/internal/logging"
)

// deleteGracePeriodSeconds is applied to every delete issued during teardown.
const deleteGracePeriodSeconds = 5

// KubeGateway implements Gateway on top of a controller-runtime client.
type KubeGateway struct {
	client client.Client
}

var _ Gateway = &KubeGateway{}

// NewKubeGateway wraps k8sClient.
func NewKubeGateway(k8sClient client.Client) *KubeGateway {
	return &KubeGateway{client: k8sClient}
}

func (g *KubeGateway) CreateWorkload(ctx context.Context, deploy *appsv1.Deployment) error {
	if err := g.client.Create(ctx, deploy); err != nil {
		return &CreateError{Kind: "Deployment", Namespace: deploy.Namespace, Name: deploy.Name, Err: err}
	}
	ctrl.LoggerFrom(ctx).V(logging.DEBUG).Info("Created deployment",
		"namespace", deploy.Namespace,
		"name", deploy.Name,
		"replicas", ptr.Deref(deploy.Spec.Replicas, 0))
	return nil
}

// ScaleWorkload sets spec.replicas with a single merge patch, without reading
// the object first.
func (g *KubeGateway) ScaleWorkload(ctx context.Context, namespace, name string, replicas int32) error {
	deploy := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	patch := client.RawPatch(types.MergePatchType, []byte(fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)))
	if err := g.client.Patch(ctx, deploy, patch); err != nil {
		return &ScaleError{Namespace: namespace, Name: name, Replicas: replicas, Err: err}
	}
	ctrl.LoggerFrom(ctx).V(logging.DEBUG).Info("Patched deployment replicas",
		"namespace", namespace,
		"name", name,
		"replicas", replicas)
	return nil
}

func (g *KubeGateway) DeleteWorkload(ctx context.Context, namespace, name string) error {
	deploy := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	if err := g.client.Delete(ctx, deploy,
		client.PropagationPolicy(metav1.DeletePropagationForeground),
		client.GracePeriodSeconds(deleteGracePeriodSeconds),
	); err != nil {
		return &DeleteError{Kind: "Deployment", Namespace: namespace, Name: name, Err: err}
	}
	return nil
}

// ListUnits returns the status of every pod matching selector, sorted by name.
func (g *KubeGateway) ListUnits(ctx context.Context, namespace string, selector labels.Selector) ([]ReplicaStatus, error) {
	podList := &corev1.PodList{}
	if err := g.client.List(ctx, podList,
		client.InNamespace(namespace),
		client.MatchingLabelsSelector{Selector: selector},
	); err != nil {
		return nil, &ListError{Namespace: namespace, Selector: selector.String(), Err: err}
	}

	sort.Slice(podList.Items, func(i, j int) bool {
		return podList.Items[i].Name < podList.Items[j].Name
	})

	statuses := make([]ReplicaStatus, 0, len(podList.Items))
	for i := range podList.Items {
		statuses = append(statuses, ReplicaStatusFromPod(&podList.Items[i]))
	}
	return statuses, nil
}

func (g *KubeGateway) CreateUnit(ctx context.Context, pod *corev1.Pod) error {
	if err := g.client.Create(ctx, pod); err != nil {
		return &CreateError{Kind: "Pod", Namespace: pod.Namespace, Name: pod.Name, Err: err}
	}
	ctrl.LoggerFrom(ctx).V(logging.DEBUG).Info("Created pod",
		"namespace", pod.Namespace,
		"name", pod.Name)
	return nil
}
