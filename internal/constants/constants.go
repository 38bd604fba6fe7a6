// Package constants holds names and defaults shared by the capacity-probe commands.
package constants

const (
	// DefaultNamespace is the tenant namespace probed when none is given.
	DefaultNamespace = "bad-tenant"
	// DefaultImage is a small HTTP server that starts quickly once scheduled.
	DefaultImage = "nginxdemos/hello"
	// DefaultCPU is the per-replica CPU request and limit.
	DefaultCPU = "1"
	// DefaultMemory is the per-replica memory request and limit. Memory is never probed.
	DefaultMemory = "128Mi"
	// DefaultSettleSeconds is the wait before each placement check.
	DefaultSettleSeconds = 7
	// DefaultPriorityClass is used by the eviction scenario.
	DefaultPriorityClass = "high-priority"
	// DefaultMaxRepolls bounds re-polling while containers are still being created.
	DefaultMaxRepolls = 10

	// Name prefixes for generated object names.
	ProbeNamePrefix   = "capacity-probe"
	FillerNamePrefix  = "capacity-filler"
	EvictorNamePrefix = "capacity-evictor"

	// Container names.
	ProbeContainerName   = "estimate"
	FillerContainerName  = "stuffer"
	EvictorContainerName = "evictor"
)

// Labels stamped on every object created by capacity-probe.
const (
	AppLabel       = "app"
	ManagedByLabel = "app.kubernetes.io/managed-by"
	ManagedByValue = "capacity-probe"
	RunLabel       = "capacity-probe.llm-d.ai/run"
	RoleLabel      = "capacity-probe.llm-d.ai/role"
)

// EnvPrefix is the prefix of environment variables overriding flags,
// e.g. CAPACITY_PROBE_NAMESPACE.
const EnvPrefix = "CAPACITY_PROBE"
