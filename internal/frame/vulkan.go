package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// VulkanOps implements Ops on a real device. It owns the command pool the
// slot command buffers are allocated from.
type VulkanOps struct {
	driver        core1_0.CoreDeviceDriver
	swapchains    khr_swapchain.ExtensionDriver
	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	commandPool core1_0.CommandPool
}

func NewVulkanOps(driver core1_0.CoreDeviceDriver, swapchains khr_swapchain.ExtensionDriver, graphicsFamily int, graphicsQueue, presentQueue core1_0.Queue) (*VulkanOps, error) {
	pool, _, err := driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: graphicsFamily,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}

	return &VulkanOps{
		driver:        driver,
		swapchains:    swapchains,
		graphicsQueue: graphicsQueue,
		presentQueue:  presentQueue,
		commandPool:   pool,
	}, nil
}

func (o *VulkanOps) CreateSlot(slot *Slot) error {
	err := o.createSlot(slot)
	if err != nil {
		o.DestroySlot(slot)
		return err
	}
	return nil
}

func (o *VulkanOps) createSlot(slot *Slot) error {
	buffers, _, err := o.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        o.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate command buffer")
	}
	slot.CommandBuffer = buffers[0]

	slot.ImageAvailable, _, err = o.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create image available semaphore")
	}

	slot.RenderFinished, _, err = o.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create render finished semaphore")
	}

	slot.InFlight, _, err = o.driver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	if err != nil {
		return errors.Wrap(err, "create in-flight fence")
	}

	return nil
}

func (o *VulkanOps) DestroySlot(slot *Slot) {
	if slot.InFlight.Initialized() {
		o.driver.DestroyFence(slot.InFlight, nil)
	}

	if slot.RenderFinished.Initialized() {
		o.driver.DestroySemaphore(slot.RenderFinished, nil)
	}

	if slot.ImageAvailable.Initialized() {
		o.driver.DestroySemaphore(slot.ImageAvailable, nil)
	}

	if slot.CommandBuffer.Initialized() {
		o.driver.FreeCommandBuffers(slot.CommandBuffer)
	}

	*slot = Slot{}
}

func (o *VulkanOps) WaitFence(slot *Slot) error {
	_, err := o.driver.WaitForFences(true, common.NoTimeout, slot.InFlight)
	return err
}

func (o *VulkanOps) ResetFence(slot *Slot) error {
	_, err := o.driver.ResetFences(slot.InFlight)
	return err
}

func (o *VulkanOps) Acquire(swapchain khr_swapchain.Swapchain, slot *Slot) (int, common.VkResult, error) {
	return o.swapchains.AcquireNextImage(swapchain, common.NoTimeout, &slot.ImageAvailable, nil)
}

func (o *VulkanOps) Record(slot *Slot, target Target) error {
	buffer := slot.CommandBuffer

	_, err := o.driver.ResetCommandBuffer(buffer, 0)
	if err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	_, err = o.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	clear := target.ClearColor
	err = o.driver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  target.RenderPass,
			Framebuffer: target.Framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: target.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear[0], clear[1], clear[2], clear[3]},
			},
		})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	o.driver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, target.Pipeline)
	o.driver.CmdSetViewport(buffer, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(target.Extent.Width),
		Height:   float32(target.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	o.driver.CmdSetScissor(buffer, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: target.Extent,
	})
	o.driver.CmdDraw(buffer, 3, 1, 0, 0)
	o.driver.CmdEndRenderPass(buffer)

	_, err = o.driver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	return nil
}

func (o *VulkanOps) Submit(slot *Slot) error {
	_, err := o.driver.QueueSubmit(o.graphicsQueue, &slot.InFlight,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{slot.ImageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{slot.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{slot.RenderFinished},
		},
	)
	return err
}

func (o *VulkanOps) Present(swapchain khr_swapchain.Swapchain, slot *Slot, imageIndex int) (common.VkResult, error) {
	return o.swapchains.QueuePresent(o.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{slot.RenderFinished},
		Swapchains:     []khr_swapchain.Swapchain{swapchain},
		ImageIndices:   []int{imageIndex},
	})
}

// Close destroys the command pool. Slots must be destroyed first.
func (o *VulkanOps) Close() {
	if o.commandPool.Initialized() {
		o.driver.DestroyCommandPool(o.commandPool, nil)
		o.commandPool = core1_0.CommandPool{}
	}
}
