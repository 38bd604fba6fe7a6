package config

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

func (w Workload) validate() []error {
	var errs []error
	if w.Namespace == "" {
		errs = append(errs, fmt.Errorf("namespace is required"))
	} else if msgs := validation.IsDNS1123Label(w.Namespace); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("namespace %q is invalid: %v", w.Namespace, msgs))
	}
	errs = append(errs, validateCount(KeyReplicas, w.Replicas, 1)...)
	if w.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %d", w.TimeoutSeconds))
	}
	if w.Image == "" {
		errs = append(errs, fmt.Errorf("image is required"))
	}
	errs = append(errs, validateQuantity(KeyCPU, w.CPU)...)
	errs = append(errs, validateQuantity(KeyMemory, w.Memory)...)
	errs = append(errs, validateObjectName(KeyName, w.Name)...)
	return errs
}

// validateCount checks that value fits the int32 replica fields and is at least min.
func validateCount(key string, value, min int) []error {
	switch {
	case value < min && min > 0:
		return []error{fmt.Errorf("%s must be > %d, got %d", key, min-1, value)}
	case value < min:
		return []error{fmt.Errorf("%s must be >= %d, got %d", key, min, value)}
	case value > math.MaxInt32:
		return []error{fmt.Errorf("%s must be <= %d, got %d", key, math.MaxInt32, value)}
	}
	return nil
}

func validateQuantity(key, value string) []error {
	q, err := resource.ParseQuantity(value)
	if err != nil {
		return []error{fmt.Errorf("%s %q is not a valid quantity: %w", key, value, err)}
	}
	if q.Sign() <= 0 {
		return []error{fmt.Errorf("%s must be positive, got %q", key, value)}
	}
	return nil
}

// validateObjectName checks a workload name. It is also the value of the app
// label, so it must be a DNS-1123 label rather than a subdomain.
func validateObjectName(key, value string) []error {
	if value == "" {
		return nil
	}
	if msgs := validation.IsDNS1123Label(value); len(msgs) > 0 {
		return []error{fmt.Errorf("%s %q is invalid: %v", key, value, msgs)}
	}
	return nil
}

func validatePriorityClass(value string) []error {
	if value == "" {
		return nil
	}
	if msgs := validation.IsDNS1123Subdomain(value); len(msgs) > 0 {
		return []error{fmt.Errorf("priority class %q is invalid: %v", value, msgs)}
	}
	return nil
}

func combine(errs []error) error {
	if err := multierr.Combine(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
