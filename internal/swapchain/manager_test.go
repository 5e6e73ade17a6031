package swapchain

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/device"
	"github.com/vkngwrapper/triangle/internal/surface"
)

type counts struct {
	swapchains, views, framebuffers int
}

type fakeBackend struct {
	support    surface.SupportDetails
	imageCount int

	created   counts
	destroyed counts
	waits     int
	calls     []string
	lastInfo  khr_swapchain.SwapchainCreateInfo

	failFramebufferAt int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		support: surface.SupportDetails{
			Capabilities: &khr_surface.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  0,
				CurrentExtent:  core1_0.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
				MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
			},
			Formats:      []khr_surface.SurfaceFormat{bgraSRGB, rgbaSRGB},
			PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
		},
		imageCount:        3,
		failFramebufferAt: -1,
	}
}

func (b *fakeBackend) SurfaceSupport() surface.SupportDetails { return b.support }

func (b *fakeBackend) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error) {
	b.created.swapchains++
	b.lastInfo = info
	b.calls = append(b.calls, "create swapchain")
	return khr_swapchain.Swapchain{}, nil
}

func (b *fakeBackend) DestroySwapchain(khr_swapchain.Swapchain) {
	b.destroyed.swapchains++
	b.calls = append(b.calls, "destroy swapchain")
}

func (b *fakeBackend) SwapchainImages(khr_swapchain.Swapchain) ([]core1_0.Image, error) {
	return make([]core1_0.Image, b.imageCount), nil
}

func (b *fakeBackend) CreateImageView(core1_0.Image, core1_0.Format) (core1_0.ImageView, error) {
	b.created.views++
	b.calls = append(b.calls, "create view")
	return core1_0.ImageView{}, nil
}

func (b *fakeBackend) DestroyImageView(core1_0.ImageView) {
	b.destroyed.views++
	b.calls = append(b.calls, "destroy view")
}

func (b *fakeBackend) CreateFramebuffer(core1_0.RenderPass, core1_0.ImageView, core1_0.Extent2D) (core1_0.Framebuffer, error) {
	if b.failFramebufferAt == b.created.framebuffers {
		return core1_0.Framebuffer{}, errors.New("out of device memory")
	}
	b.created.framebuffers++
	b.calls = append(b.calls, "create framebuffer")
	return core1_0.Framebuffer{}, nil
}

func (b *fakeBackend) DestroyFramebuffer(core1_0.Framebuffer) {
	b.destroyed.framebuffers++
	b.calls = append(b.calls, "destroy framebuffer")
}

func (b *fakeBackend) WaitIdle() error {
	b.waits++
	b.calls = append(b.calls, "wait idle")
	return nil
}

type fakePasses struct {
	formats []core1_0.Format
}

func (p *fakePasses) RenderPassFor(format core1_0.Format) (core1_0.RenderPass, error) {
	p.formats = append(p.formats, format)
	return core1_0.RenderPass{}, nil
}

type fakeWindow struct {
	width, height int
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

func splitIndices() device.QueueFamilyIndices {
	graphics, present := 0, 1
	return device.QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &present}
}

func newTestManager(backend *fakeBackend, window *fakeWindow) (*Manager, *fakePasses) {
	log, _ := test.NewNullLogger()
	passes := &fakePasses{}
	return NewManager(backend, passes, window, splitIndices(), log), passes
}

func TestCreate(t *testing.T) {
	backend := newFakeBackend()
	manager, passes := newTestManager(backend, &fakeWindow{width: 800, height: 640})

	if err := manager.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if manager.Extent() != (core1_0.Extent2D{Width: 800, Height: 640}) {
		t.Errorf("extent = %+v", manager.Extent())
	}
	if manager.Format() != rgbaSRGB {
		t.Errorf("format = %+v, want preferred format", manager.Format())
	}
	if manager.ImageCount() != 3 || backend.created.views != 3 || backend.created.framebuffers != 3 {
		t.Errorf("images %d, views %d, framebuffers %d", manager.ImageCount(), backend.created.views, backend.created.framebuffers)
	}
	if len(passes.formats) != 1 || passes.formats[0] != core1_0.FormatR8G8B8A8SRGB {
		t.Errorf("render pass requested for %v", passes.formats)
	}

	info := backend.lastInfo
	if info.MinImageCount != 3 {
		t.Errorf("MinImageCount = %d, want 3", info.MinImageCount)
	}
	if info.ImageSharingMode != core1_0.SharingModeConcurrent || len(info.QueueFamilyIndices) != 2 {
		t.Errorf("sharing = %v %v", info.ImageSharingMode, info.QueueFamilyIndices)
	}
	if info.CompositeAlpha != khr_surface.CompositeAlphaOpaque || !info.Clipped || info.ImageArrayLayers != 1 {
		t.Errorf("fixed parameters wrong: %+v", info)
	}
	if manager.Generation() != 1 {
		t.Errorf("generation = %d", manager.Generation())
	}
}

func TestCreateTwiceFails(t *testing.T) {
	manager, _ := newTestManager(newFakeBackend(), &fakeWindow{width: 800, height: 640})

	if err := manager.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := manager.Create(); err == nil {
		t.Error("second Create without teardown should fail")
	}
}

func TestRecreateTwiceDoesNotLeak(t *testing.T) {
	backend := newFakeBackend()
	manager, _ := newTestManager(backend, &fakeWindow{width: 800, height: 640})

	if err := manager.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := manager.Recreate(); err != nil {
			t.Fatalf("Recreate %d: %v", i, err)
		}
		if manager.ImageCount() != 3 {
			t.Errorf("after recreate %d: %d images", i, manager.ImageCount())
		}
		live := counts{
			swapchains:   backend.created.swapchains - backend.destroyed.swapchains,
			views:        backend.created.views - backend.destroyed.views,
			framebuffers: backend.created.framebuffers - backend.destroyed.framebuffers,
		}
		if live != (counts{swapchains: 1, views: 3, framebuffers: 3}) {
			t.Errorf("after recreate %d: live resources %+v", i, live)
		}
	}

	if backend.waits != 2 {
		t.Errorf("waited idle %d times, want 2", backend.waits)
	}
	if manager.Generation() != 3 {
		t.Errorf("generation = %d, want 3", manager.Generation())
	}

	manager.Destroy()
	if backend.created != backend.destroyed {
		t.Errorf("created %+v, destroyed %+v", backend.created, backend.destroyed)
	}
}

func TestRecreateTeardownOrder(t *testing.T) {
	backend := newFakeBackend()
	backend.imageCount = 2
	manager, _ := newTestManager(backend, &fakeWindow{width: 800, height: 640})

	if err := manager.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	backend.calls = nil

	if err := manager.Recreate(); err != nil {
		t.Fatalf("Recreate: %v", err)
	}

	want := []string{
		"wait idle",
		"destroy framebuffer", "destroy framebuffer",
		"destroy view", "destroy view",
		"destroy swapchain",
		"create swapchain",
		"create view", "create view",
		"create framebuffer", "create framebuffer",
	}
	if len(backend.calls) != len(want) {
		t.Fatalf("calls = %v", backend.calls)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q (all calls %v)", i, backend.calls[i], want[i], backend.calls)
		}
	}
}

func TestRecreateUsesNewFramebufferSize(t *testing.T) {
	window := &fakeWindow{width: 800, height: 640}
	manager, _ := newTestManager(newFakeBackend(), window)

	if err := manager.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	window.width, window.height = 400, 300
	if err := manager.Recreate(); err != nil {
		t.Fatalf("Recreate: %v", err)
	}

	if manager.Extent() != (core1_0.Extent2D{Width: 400, Height: 300}) {
		t.Errorf("extent = %+v, want 400x300", manager.Extent())
	}
}

func TestCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *fakeBackend)
		want   error
	}{
		{name: "no capabilities", mutate: func(b *fakeBackend) { b.support.Capabilities = nil }, want: ErrSurfaceCapabilities},
		{name: "no formats", mutate: func(b *fakeBackend) { b.support.Formats = nil }, want: ErrNoSurfaceFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			tt.mutate(backend)
			manager, _ := newTestManager(backend, &fakeWindow{width: 800, height: 640})

			err := manager.Create()
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if backend.created.swapchains != 0 {
				t.Error("no swapchain should be created")
			}
		})
	}
}

func TestPartialCreateIsReleasedByDestroy(t *testing.T) {
	backend := newFakeBackend()
	backend.failFramebufferAt = 1
	manager, _ := newTestManager(backend, &fakeWindow{width: 800, height: 640})

	if err := manager.Create(); err == nil {
		t.Fatal("expected framebuffer failure")
	}

	manager.Destroy()
	if backend.created != backend.destroyed {
		t.Errorf("created %+v, destroyed %+v", backend.created, backend.destroyed)
	}
}
