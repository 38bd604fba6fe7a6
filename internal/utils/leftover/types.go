// Package leftover finds capacity-probe objects that outlived their run.
//
// A probe run with --no-deletion, an evict run, or an interrupted run leaves
// Deployments and Pods behind. They keep their resource requests, so a later
// probe in the same namespace reports less spare capacity than there is.
// Discovery lists objects by the managed-by label; detection reads the role and
// run labels the workload builder stamps on every object.
package leftover

import (
	"time"

	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// RoleUnknown is reported for managed objects without a recognized role label.
const RoleUnknown workload.Role = "unknown"

// Kind of a leftover object.
type Kind string

const (
	KindDeployment Kind = "Deployment"
	KindPod        Kind = "Pod"
)

// Object is one leftover Deployment or standalone Pod.
type Object struct {
	Kind      Kind          `json:"kind" yaml:"kind"`
	Namespace string        `json:"namespace" yaml:"namespace"`
	Name      string        `json:"name" yaml:"name"`
	Role      workload.Role `json:"role" yaml:"role"`
	RunID     string        `json:"run,omitempty" yaml:"run,omitempty"`
	// Replicas is the desired replica count of a Deployment and 1 for a Pod.
	Replicas int32     `json:"replicas" yaml:"replicas"`
	Created  time.Time `json:"created" yaml:"created"`
}
