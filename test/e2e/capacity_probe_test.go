/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/llm-d/llm-d-capacity-probe/internal/commands"
	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/observer"
	"github.com/llm-d/llm-d-capacity-probe/internal/probe"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

func runCommand(ctx context.Context, args ...string) (string, string, error) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := commands.DefaultDeps()
	deps.Out = stdout
	deps.ErrOut = stderr

	root := commands.NewRootCommand(deps)
	root.SetArgs(append(args, "--kubeconfig", kubeconfig, "--context", kubeContext))
	err := root.ExecuteContext(ctx)
	_, _ = GinkgoWriter.Write(stderr.Bytes())
	return stdout.String(), stderr.String(), err
}

var _ = Describe("Capacity probe", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		ctx = context.Background()
	})

	It("should estimate the spare capacity and delete the probe deployment", func() {
		out, _, err := runCommand(ctx, "estimate",
			"-n", testNamespace,
			"--cpu", podCPU,
			"-i", "2",
			"-t", "10",
			"--max-replicas", "400",
			"-o", "json")
		Expect(err).NotTo(HaveOccurred())

		var outcome probe.Outcome
		Expect(json.Unmarshal([]byte(out), &outcome)).To(Succeed())
		Expect(outcome.Replicas).To(BeNumerically(">=", 0))
		Expect(outcome.LastAttempted).To(Equal(outcome.Raw + 2))
		Expect(outcome.Reason).To(BeElementOf(observer.ResourceExhausted, observer.InferredExhausted, observer.TransientlyPending))
		if outcome.Reason == observer.ResourceExhausted {
			Expect(outcome.Detail).To(ContainSubstring("Insufficient"))
		}
		_, _ = GinkgoWriter.Write([]byte(out))

		By("waiting for the probe deployment to be removed")
		Eventually(func(g Gomega) {
			deploys, err := k8sClient.AppsV1().Deployments(testNamespace).List(ctx, metav1.ListOptions{
				LabelSelector: constants.ManagedByLabel + "=" + constants.ManagedByValue + "," +
					constants.RoleLabel + "=" + string(workload.RoleProbe),
			})
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(deploys.Items).To(BeEmpty())
		}, 2*time.Minute, 2*time.Second).Should(Succeed())
	})

	It("should keep the probe deployment with --no-deletion", func() {
		out, _, err := runCommand(ctx, "estimate",
			"-n", testNamespace,
			"--cpu", podCPU,
			"--name", "kept-probe",
			"-i", "4",
			"-t", "10",
			"--max-replicas", "400",
			"-k")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(BeEmpty())

		deploy, err := k8sClient.AppsV1().Deployments(testNamespace).Get(ctx, "kept-probe", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(deploy.Labels).To(HaveKeyWithValue(constants.ManagedByLabel, constants.ManagedByValue))

		Expect(k8sClient.AppsV1().Deployments(testNamespace).Delete(ctx, "kept-probe", metav1.DeleteOptions{})).To(Succeed())
	})
})

var _ = Describe("Eviction scenario", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		ctx = context.Background()
	})

	It("should create the filler deployment and the evictor pod", func() {
		_, stderr, err := runCommand(ctx, "evict",
			"-n", testNamespace,
			"--cpu", podCPU,
			"-r", "2",
			"-t", "5",
			"-p", testPriorityClass,
			"--name", "e2e-filler",
			"--evictor-name", "e2e-evictor")
		Expect(err).NotTo(HaveOccurred())
		Expect(stderr).To(ContainSubstring("kubectl -n " + testNamespace + " delete deployment e2e-filler"))

		filler, err := k8sClient.AppsV1().Deployments(testNamespace).Get(ctx, "e2e-filler", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(*filler.Spec.Replicas).To(Equal(int32(2)))
		Expect(filler.Spec.Template.Spec.PriorityClassName).To(Equal(testPriorityClass))

		evictor, err := k8sClient.CoreV1().Pods(testNamespace).Get(ctx, "e2e-evictor", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(evictor.Spec.PriorityClassName).To(Equal(testPriorityClass))
		Expect(evictor.Spec.Priority).NotTo(BeNil())

		By("cleaning up the scenario objects")
		Expect(k8sClient.AppsV1().Deployments(testNamespace).Delete(ctx, "e2e-filler", metav1.DeleteOptions{})).To(Succeed())
		Expect(k8sClient.CoreV1().Pods(testNamespace).Delete(ctx, "e2e-evictor", metav1.DeleteOptions{})).To(Succeed())
	})
})
