package gateway

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

const testNamespace = "test-ns"

func makeSpec(name string, replicas int32) workload.Spec {
	return workload.Spec{
		Name:      name,
		Namespace: testNamespace,
		RunID:     "run1",
		Role:      workload.RoleProbe,
		Replicas:  replicas,
		CPU:       resource.MustParse("1"),
		Memory:    resource.MustParse("128Mi"),
		Image:     "nginxdemos/hello",
	}
}

func makePod(name string, podLabels map[string]string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: testNamespace, Labels: podLabels},
		Status:     corev1.PodStatus{Phase: phase},
	}
}

var _ = Describe("KubeGateway", func() {
	var (
		ctx  context.Context
		spec workload.Spec
	)

	BeforeEach(func() {
		ctx = context.Background()
		spec = makeSpec("capacity-probe-run1", 2)
	})

	Context("workload lifecycle", func() {
		It("should create, scale and delete a deployment", func() {
			k8sClient := fake.NewClientBuilder().WithScheme(NewScheme()).Build()
			gw := NewKubeGateway(k8sClient)

			Expect(gw.CreateWorkload(ctx, workload.BuildDeployment(spec))).To(Succeed())

			deploy := &appsv1.Deployment{}
			Expect(k8sClient.Get(ctx, client.ObjectKey{Namespace: testNamespace, Name: spec.Name}, deploy)).To(Succeed())
			Expect(*deploy.Spec.Replicas).To(Equal(int32(2)))

			Expect(gw.ScaleWorkload(ctx, testNamespace, spec.Name, 5)).To(Succeed())
			Expect(k8sClient.Get(ctx, client.ObjectKey{Namespace: testNamespace, Name: spec.Name}, deploy)).To(Succeed())
			Expect(*deploy.Spec.Replicas).To(Equal(int32(5)))
			Expect(deploy.Spec.Template.Spec.Containers).To(HaveLen(1), "patch must leave the template untouched")

			Expect(gw.DeleteWorkload(ctx, testNamespace, spec.Name)).To(Succeed())
			err := k8sClient.Get(ctx, client.ObjectKey{Namespace: testNamespace, Name: spec.Name}, deploy)
			Expect(apierrors.IsNotFound(err)).To(BeTrue())
		})

		It("should return a CreateError when the deployment already exists", func() {
			existing := workload.BuildDeployment(spec)
			k8sClient := fake.NewClientBuilder().WithScheme(NewScheme()).WithObjects(existing).Build()
			gw := NewKubeGateway(k8sClient)

			err := gw.CreateWorkload(ctx, workload.BuildDeployment(spec))
			var createErr *CreateError
			Expect(errors.As(err, &createErr)).To(BeTrue())
			Expect(createErr.Kind).To(Equal("Deployment"))
			Expect(createErr.Name).To(Equal(spec.Name))
			Expect(apierrors.IsAlreadyExists(err)).To(BeTrue())
		})

		It("should return a ScaleError when the deployment is missing", func() {
			gw := NewKubeGateway(fake.NewClientBuilder().WithScheme(NewScheme()).Build())

			err := gw.ScaleWorkload(ctx, testNamespace, "missing", 3)
			var scaleErr *ScaleError
			Expect(errors.As(err, &scaleErr)).To(BeTrue())
			Expect(scaleErr.Replicas).To(Equal(int32(3)))
			Expect(err.Error()).To(ContainSubstring("missing to 3 replicas"))
		})

		It("should return a DeleteError when the deployment is missing", func() {
			gw := NewKubeGateway(fake.NewClientBuilder().WithScheme(NewScheme()).Build())

			err := gw.DeleteWorkload(ctx, testNamespace, "missing")
			var deleteErr *DeleteError
			Expect(errors.As(err, &deleteErr)).To(BeTrue())
			Expect(apierrors.IsNotFound(err)).To(BeTrue())
		})
	})

	Context("CreateUnit", func() {
		It("should create the evictor pod", func() {
			k8sClient := fake.NewClientBuilder().WithScheme(NewScheme()).Build()
			gw := NewKubeGateway(k8sClient)

			evictor := spec
			evictor.Name = "capacity-evictor-run1"
			evictor.Role = workload.RoleEvictor
			evictor.PriorityClassName = "high-priority"
			Expect(gw.CreateUnit(ctx, workload.BuildPod(evictor))).To(Succeed())

			pod := &corev1.Pod{}
			Expect(k8sClient.Get(ctx, client.ObjectKey{Namespace: testNamespace, Name: evictor.Name}, pod)).To(Succeed())
			Expect(pod.Spec.PriorityClassName).To(Equal("high-priority"))
		})
	})

	Context("ListUnits", func() {
		It("should only return pods matching the selector, sorted by name", func() {
			podLabels := workload.Labels(spec)
			other := makeSpec("someone-else", 1)
			other.RunID = "run2"

			k8sClient := fake.NewClientBuilder().WithScheme(NewScheme()).WithObjects(
				makePod("probe-b", podLabels, corev1.PodPending),
				makePod("probe-a", podLabels, corev1.PodRunning),
				makePod("foreign", workload.Labels(other), corev1.PodRunning),
			).Build()
			gw := NewKubeGateway(k8sClient)

			units, err := gw.ListUnits(ctx, testNamespace, workload.Selector(spec))
			Expect(err).NotTo(HaveOccurred())
			Expect(units).To(HaveLen(2))
			Expect(units[0].Name).To(Equal("probe-a"))
			Expect(units[0].Phase).To(Equal(PhaseRunning))
			Expect(units[1].Name).To(Equal("probe-b"))
			Expect(units[1].Phase).To(Equal(PhasePending))
		})

		It("should wrap list failures in a ListError", func() {
			k8sClient := fake.NewClientBuilder().WithScheme(NewScheme()).WithInterceptorFuncs(interceptor.Funcs{
				List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
					return errors.New("connection refused")
				},
			}).Build()
			gw := NewKubeGateway(k8sClient)

			_, err := gw.ListUnits(ctx, testNamespace, labels.Everything())
			var listErr *ListError
			Expect(errors.As(err, &listErr)).To(BeTrue())
			Expect(listErr.Namespace).To(Equal(testNamespace))
			Expect(err.Error()).To(ContainSubstring("connection refused"))
		})
	})
})

var _ = Describe("ReplicaStatusFromPod", func() {
	It("should extract the unschedulable message", func() {
		pod := makePod("p", nil, corev1.PodPending)
		pod.Status.Conditions = []corev1.PodCondition{{
			Type:    corev1.PodScheduled,
			Status:  corev1.ConditionFalse,
			Reason:  corev1.PodReasonUnschedulable,
			Message: "0/3 nodes are available: 3 Insufficient cpu.",
		}}

		status := ReplicaStatusFromPod(pod)
		Expect(status.Phase).To(Equal(PhasePending))
		Expect(status.SchedulingMessage).To(Equal(ptr.To("0/3 nodes are available: 3 Insufficient cpu.")))
		Expect(status.WaitingReason).To(BeNil())
	})

	It("should ignore a satisfied PodScheduled condition", func() {
		pod := makePod("p", nil, corev1.PodPending)
		pod.Status.Conditions = []corev1.PodCondition{{Type: corev1.PodScheduled, Status: corev1.ConditionTrue}}
		pod.Status.ContainerStatuses = []corev1.ContainerStatus{{
			Name:  "estimate",
			State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ContainerCreating"}},
		}}

		status := ReplicaStatusFromPod(pod)
		Expect(status.SchedulingMessage).To(BeNil())
		Expect(status.WaitingReason).To(Equal(ptr.To("ContainerCreating")))
	})

	It("should prefer init container waiting reasons", func() {
		pod := makePod("p", nil, corev1.PodPending)
		pod.Status.InitContainerStatuses = []corev1.ContainerStatus{{
			State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "PodInitializing"}},
		}}
		pod.Status.ContainerStatuses = []corev1.ContainerStatus{{
			State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ContainerCreating"}},
		}}

		Expect(ReplicaStatusFromPod(pod).WaitingReason).To(Equal(ptr.To("PodInitializing")))
	})

	It("should map failed pods to PhaseOther with no details", func() {
		status := ReplicaStatusFromPod(makePod("p", nil, corev1.PodFailed))
		Expect(status.Phase).To(Equal(PhaseOther))
		Expect(status.SchedulingMessage).To(BeNil())
		Expect(status.WaitingReason).To(BeNil())
	})
})
