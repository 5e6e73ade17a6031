package window

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

// Window is a resizable SDL2 window with Vulkan support. All methods must be
// called from the thread that created it.
type Window struct {
	window *sdl.Window
	log    logrus.FieldLogger

	shouldClose bool
	resized     func(width, height int)
}

func New(title string, width, height int, log logrus.FieldLogger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	log.WithFields(logrus.Fields{"title": title, "width": width, "height": height}).Info("created window")
	return &Window{window: window, log: log}, nil
}

// CreateDriver loads the Vulkan loader SDL found for this window.
func (w *Window) CreateDriver() (core1_0.GlobalDriver, error) {
	driver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan driver")
	}
	return driver, nil
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance, surfaces khr_surface.ExtensionDriver) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, surfaces, w.window)
	if err != nil {
		return khr_surface.Surface{}, errors.Wrap(err, "create window surface")
	}
	return surface, nil
}

// FramebufferSize is the drawable size in pixels, or 0x0 while minimised.
func (w *Window) FramebufferSize() (int, int) {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}

	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// PollEvents handles every queued event without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

// WaitEvents blocks until at least one event arrives, then drains the queue.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *Window) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.shouldClose = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			if w.resized != nil {
				w.resized(int(e.Data1), int(e.Data2))
			}
		case sdl.WINDOWEVENT_CLOSE:
			w.shouldClose = true
		}
	}
}

func (w *Window) SetResizeCallback(callback func(width, height int)) {
	w.resized = callback
}

func (w *Window) ShouldClose() bool { return w.shouldClose }

func (w *Window) Destroy() {
	if w.window != nil {
		if err := w.window.Destroy(); err != nil {
			w.log.WithError(err).Warn("failed to destroy window")
		}
		w.window = nil
	}
	sdl.Quit()
}
