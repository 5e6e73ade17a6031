package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type fakeSwapchain struct {
	extent      core1_0.Extent2D
	requested   []int
	recreations int
}

func (s *fakeSwapchain) Swapchain() khr_swapchain.Swapchain { return khr_swapchain.Swapchain{} }

func (s *fakeSwapchain) Framebuffer(index int) core1_0.Framebuffer {
	s.requested = append(s.requested, index)
	return core1_0.Framebuffer{}
}

func (s *fakeSwapchain) Extent() core1_0.Extent2D { return s.extent }

func (s *fakeSwapchain) Recreate() error {
	s.recreations++
	s.extent = core1_0.Extent2D{Width: 400, Height: 300}
	return nil
}

type fakePipelines struct{}

func (fakePipelines) RenderPass() core1_0.RenderPass { return core1_0.RenderPass{} }

func (fakePipelines) Pipeline() core1_0.Pipeline { return core1_0.Pipeline{} }

func TestChainTarget(t *testing.T) {
	swapchain := &fakeSwapchain{extent: core1_0.Extent2D{Width: 800, Height: 640}}
	c := &chain{
		swapchain:  swapchain,
		pipelines:  fakePipelines{},
		clearColor: mgl32.Vec4{0, 0, 0, 1},
	}

	target := c.Target(2)
	if len(swapchain.requested) != 1 || swapchain.requested[0] != 2 {
		t.Errorf("framebuffers requested for %v, want [2]", swapchain.requested)
	}
	if target.Extent != (core1_0.Extent2D{Width: 800, Height: 640}) {
		t.Errorf("extent = %+v", target.Extent)
	}
	if target.ClearColor != (mgl32.Vec4{0, 0, 0, 1}) {
		t.Errorf("clear colour = %v", target.ClearColor)
	}

	if err := c.Recreate(); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if swapchain.recreations != 1 {
		t.Errorf("recreations = %d", swapchain.recreations)
	}
	if c.Target(0).Extent != (core1_0.Extent2D{Width: 400, Height: 300}) {
		t.Error("target did not pick up the recreated extent")
	}
}
