package gateway

import "fmt"

// CreateError reports a failed create of a Deployment or Pod.
type CreateError struct {
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("creating %s %s/%s: %v", e.Kind, e.Namespace, e.Name, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ScaleError reports a failed replica count update.
type ScaleError struct {
	Namespace string
	Name      string
	Replicas  int32
	Err       error
}

func (e *ScaleError) Error() string {
	return fmt.Sprintf("scaling deployment %s/%s to %d replicas: %v", e.Namespace, e.Name, e.Replicas, e.Err)
}

func (e *ScaleError) Unwrap() error { return e.Err }

// DeleteError reports a failed delete.
type DeleteError struct {
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("deleting %s %s/%s: %v", e.Kind, e.Namespace, e.Name, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// ListError reports a failed pod listing.
type ListError struct {
	Namespace string
	Selector  string
	Err       error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing pods in %s matching %q: %v", e.Namespace, e.Selector, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }
