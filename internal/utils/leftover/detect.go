package leftover

import (
	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// GetRole determines the role of a managed object from its labels.
//
// Returns RoleUnknown when the role label is missing or carries a value this
// version does not know.
func GetRole(objectLabels map[string]string) workload.Role {
	value, exists := objectLabels[constants.RoleLabel]
	if !exists {
		return RoleUnknown
	}
	return matchRole(value)
}

func matchRole(value string) workload.Role {
	for _, role := range []workload.Role{workload.RoleProbe, workload.RoleFiller, workload.RoleEvictor} {
		if value == string(role) {
			return role
		}
	}
	return RoleUnknown
}
