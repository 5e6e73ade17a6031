package frame

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

const MaxFramesInFlight = 2

const statsInterval = 1000

// Slot is the set of resources owned by one frame in flight.
type Slot struct {
	CommandBuffer  core1_0.CommandBuffer
	ImageAvailable core1_0.Semaphore
	RenderFinished core1_0.Semaphore
	InFlight       core1_0.Fence
}

// Target is everything a command buffer needs to draw into one swapchain image.
type Target struct {
	RenderPass  core1_0.RenderPass
	Framebuffer core1_0.Framebuffer
	Pipeline    core1_0.Pipeline
	Extent      core1_0.Extent2D
	ClearColor  mgl32.Vec4
}

// Ops is the set of queue and synchronization calls the scheduler makes.
// VulkanOps is the production implementation.
type Ops interface {
	CreateSlot(slot *Slot) error
	DestroySlot(slot *Slot)
	WaitFence(slot *Slot) error
	ResetFence(slot *Slot) error
	Acquire(swapchain khr_swapchain.Swapchain, slot *Slot) (int, common.VkResult, error)
	Record(slot *Slot, target Target) error
	Submit(slot *Slot) error
	Present(swapchain khr_swapchain.Swapchain, slot *Slot, imageIndex int) (common.VkResult, error)
	Close()
}

// Chain is the scheduler's view of the swapchain and its framebuffers.
type Chain interface {
	Swapchain() khr_swapchain.Swapchain
	Target(imageIndex int) Target
	Recreate() error
}

type Window interface {
	FramebufferSize() (width, height int)
	WaitEvents()
	ShouldClose() bool
	SetResizeCallback(callback func(width, height int))
}

type Stats struct {
	Ticks       int
	Recreations int
	Busy        time.Duration
}

// AverageFrameTime is the mean time spent inside Tick.
func (s Stats) AverageFrameTime() time.Duration {
	if s.Ticks == 0 {
		return 0
	}
	return s.Busy / time.Duration(s.Ticks)
}

// Scheduler drives the acquire, record, submit and present cycle over a ring
// of MaxFramesInFlight slots. It is not safe for concurrent use; the resize
// callback only raises a flag that the next Tick consumes.
type Scheduler struct {
	ops    Ops
	chain  Chain
	window Window
	log    logrus.FieldLogger

	slots        [MaxFramesInFlight]Slot
	slotsCreated int
	currentFrame int

	framebufferResized bool

	stats       Stats
	windowStart time.Duration
	windowTicks int
}

func New(ops Ops, chain Chain, window Window, log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		ops:    ops,
		chain:  chain,
		window: window,
		log:    log,
	}

	for i := range s.slots {
		err := ops.CreateSlot(&s.slots[i])
		if err != nil {
			s.Destroy()
			return nil, errors.Wrapf(err, "create frame slot %d", i)
		}
		s.slotsCreated++
	}

	window.SetResizeCallback(func(width, height int) {
		s.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("framebuffer resized")
		s.framebufferResized = true
	})

	s.windowStart = hrtime.Now()
	return s, nil
}

// Tick renders one frame into the slot at CurrentFrame. Out-of-date and
// suboptimal swapchains and resizes are handled by recreating the swapchain;
// every other failure is returned.
func (s *Scheduler) Tick() error {
	start := hrtime.Now()
	slot := &s.slots[s.currentFrame]

	err := s.ops.WaitFence(slot)
	if err != nil {
		return errors.Wrap(err, "wait for in-flight fence")
	}

	imageIndex, res, err := s.ops.Acquire(s.chain.Swapchain(), slot)
	if res == khr_swapchain.VKErrorOutOfDate {
		// The fence stays signaled so the next wait on this slot returns at once.
		return s.recreate("acquire reported out of date")
	} else if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}
	suboptimal := res == khr_swapchain.VKSuboptimal

	err = s.ops.ResetFence(slot)
	if err != nil {
		return errors.Wrap(err, "reset in-flight fence")
	}

	err = s.ops.Record(slot, s.chain.Target(imageIndex))
	if err != nil {
		return errors.Wrap(err, "record command buffer")
	}

	err = s.ops.Submit(slot)
	if err != nil {
		return errors.Wrap(err, "submit command buffer")
	}

	res, err = s.ops.Present(s.chain.Swapchain(), slot, imageIndex)
	switch {
	case res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal:
		err = s.recreate("present reported " + res.String())
	case err != nil:
		return errors.Wrap(err, "present swapchain image")
	case suboptimal:
		err = s.recreate("acquire reported suboptimal")
	case s.framebufferResized:
		err = s.recreate("framebuffer resized")
	}
	if err != nil {
		return err
	}

	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight
	s.account(hrtime.Since(start))
	return nil
}

// recreate waits out a zero-area framebuffer and then rebuilds the swapchain.
// A close request during the wait skips the rebuild.
func (s *Scheduler) recreate(reason string) error {
	width, height := s.window.FramebufferSize()
	for width == 0 || height == 0 {
		if s.window.ShouldClose() {
			return nil
		}
		s.window.WaitEvents()
		width, height = s.window.FramebufferSize()
	}

	s.log.WithFields(logrus.Fields{
		"reason": reason,
		"width":  width,
		"height": height,
	}).Info("recreating swapchain")

	// Resizes seen while waiting are covered by this rebuild.
	s.framebufferResized = false
	err := s.chain.Recreate()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	s.stats.Recreations++
	return nil
}

func (s *Scheduler) account(elapsed time.Duration) {
	s.stats.Ticks++
	s.stats.Busy += elapsed
	s.windowTicks++

	if s.windowTicks < statsInterval {
		return
	}

	now := hrtime.Now()
	window := now - s.windowStart
	s.log.WithFields(logrus.Fields{
		"avgFrameTime": s.stats.AverageFrameTime(),
		"fps":          float64(s.windowTicks) / window.Seconds(),
	}).Debug("frame statistics")

	s.windowStart = now
	s.windowTicks = 0
}

func (s *Scheduler) CurrentFrame() int { return s.currentFrame }

func (s *Scheduler) Stats() Stats { return s.stats }

// Destroy releases every slot and the command pool. The device must be idle.
func (s *Scheduler) Destroy() {
	for i := 0; i < s.slotsCreated; i++ {
		s.ops.DestroySlot(&s.slots[i])
		s.slots[i] = Slot{}
	}
	s.slotsCreated = 0

	s.ops.Close()
}
