package sim

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
)

func TestLifecycle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Engine Lifecycle Suite")
}

var _ = Describe("Engine lifecycle", func() {
	var e *Engine

	steps := func() int64 { return e.Snapshot().Steps }

	BeforeEach(func() {
		cfg := config.DefaultConfig()
		cfg.SecondsPerRevolution = 0.05
		var err error
		e, err = New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		e.Stop()
	})

	It("steps once immediately on start", func() {
		e.Start()
		Eventually(steps).WithTimeout(time.Second).Should(BeNumerically(">=", 1))
		Expect(e.Status()).To(Equal(Running))
	})

	It("keeps stepping until stopped", func() {
		e.Start()
		Eventually(steps).WithTimeout(2 * time.Second).Should(BeNumerically(">", 10))

		e.Stop()
		frozen := steps()
		Consistently(steps).WithTimeout(50 * time.Millisecond).Should(Equal(frozen))
		Expect(e.Status()).To(Equal(Stopped))
	})

	It("resumes from where it stopped", func() {
		e.Start()
		Eventually(steps).WithTimeout(time.Second).Should(BeNumerically(">", 3))
		e.Stop()
		frozen := steps()

		e.Start()
		Eventually(steps).WithTimeout(time.Second).Should(BeNumerically(">", frozen))
	})

	It("treats repeated start and stop as no-ops", func() {
		e.Stop()
		e.Start()
		e.Start()
		Eventually(steps).WithTimeout(time.Second).Should(BeNumerically(">", 0))
		e.Stop()
		e.Stop()

		frozen := steps()
		Consistently(steps).WithTimeout(50 * time.Millisecond).Should(Equal(frozen))
	})

	It("stops and rewinds on reset", func() {
		e.Start()
		Eventually(steps).WithTimeout(time.Second).Should(BeNumerically(">", 5))

		e.Reset()
		Expect(e.Status()).To(Equal(Stopped))
		Consistently(steps).WithTimeout(50 * time.Millisecond).Should(BeZero())

		x0 := e.InitialState()
		e.Read(func(v View) {
			Expect(v.SampleCount()).To(Equal(1))
			Expect(v.CurrentPosition(dynamo.Secondary)).To(Equal(x0.Position(dynamo.Secondary)))
		})
	})

	It("notifies subscribers as samples arrive", func() {
		ch, cancel := e.Subscribe()
		defer cancel()

		e.Start()
		Eventually(ch).WithTimeout(time.Second).Should(Receive())
		Eventually(ch).WithTimeout(time.Second).Should(Receive())
	})
})
