package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/frame"
)

type swapchainSet interface {
	Swapchain() khr_swapchain.Swapchain
	Framebuffer(index int) core1_0.Framebuffer
	Extent() core1_0.Extent2D
	Recreate() error
}

type pipelineSet interface {
	RenderPass() core1_0.RenderPass
	Pipeline() core1_0.Pipeline
}

// chain joins the swapchain manager and the pipeline builder into the view
// the frame scheduler draws through.
type chain struct {
	swapchain  swapchainSet
	pipelines  pipelineSet
	clearColor mgl32.Vec4
}

func (c *chain) Swapchain() khr_swapchain.Swapchain { return c.swapchain.Swapchain() }

func (c *chain) Target(imageIndex int) frame.Target {
	return frame.Target{
		RenderPass:  c.pipelines.RenderPass(),
		Framebuffer: c.swapchain.Framebuffer(imageIndex),
		Pipeline:    c.pipelines.Pipeline(),
		Extent:      c.swapchain.Extent(),
		ClearColor:  c.clearColor,
	}
}

func (c *chain) Recreate() error { return c.swapchain.Recreate() }
