package logging

import (
	"github.com/onsi/ginkgo/v2"
	ctrl "sigs.k8s.io/controller-runtime"
)

// NewTestLogger routes the global logger to the ginkgo writer at TRACE verbosity.
func NewTestLogger() {
	ctrl.SetLogger(NewLogger(Options{
		Verbosity:   TRACE,
		Development: true,
		Output:      ginkgo.GinkgoWriter,
	}))
}
