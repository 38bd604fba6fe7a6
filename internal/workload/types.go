// Package workload renders probe, filler and evictor workloads into Kubernetes objects.
//
// Every builder here is a pure function: it reads a Spec and returns a freshly
// allocated object, never touching the cluster.
package workload

import (
	"fmt"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Role identifies what a workload is used for.
type Role string

const (
	// RoleProbe is the Deployment scaled up by the capacity probe.
	RoleProbe Role = "probe"
	// RoleFiller is the low-priority Deployment that stuffs a namespace.
	RoleFiller Role = "filler"
	// RoleEvictor is the single high-priority pod injected after the filler.
	RoleEvictor Role = "evictor"
)

// Spec describes a workload independently of its Kubernetes representation.
type Spec struct {
	// Name of the Deployment (or Pod, for the evictor).
	Name      string
	Namespace string
	// RunID ties every object and pod of a run together.
	RunID string
	Role  Role

	// Replicas is ignored for the evictor pod.
	Replicas int32

	// CPU and Memory are applied as both request and limit.
	CPU    resource.Quantity
	Memory resource.Quantity

	// Image is the single container's image; the container is named after Role.
	Image string

	// PriorityClassName is left unset on the pod spec when empty.
	PriorityClassName string
}

// NewRunID returns a short random token identifying one run.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// GenerateName derives a per-run object name from a prefix.
func GenerateName(prefix, runID string) string {
	return fmt.Sprintf("%s-%s", prefix, runID)
}
