package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/device"
	"github.com/vkngwrapper/triangle/internal/surface"
)

var ErrSurfaceCapabilities = errors.New("surface capabilities unavailable")

// Backend is the set of device calls the manager makes. VulkanBackend is the
// production implementation.
type Backend interface {
	SurfaceSupport() surface.SupportDetails
	CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error)
	DestroySwapchain(swapchain khr_swapchain.Swapchain)
	SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, error)
	CreateImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error)
	DestroyImageView(view core1_0.ImageView)
	CreateFramebuffer(renderPass core1_0.RenderPass, view core1_0.ImageView, extent core1_0.Extent2D) (core1_0.Framebuffer, error)
	DestroyFramebuffer(framebuffer core1_0.Framebuffer)
	WaitIdle() error
}

// RenderPassProvider hands out the render pass compatible with a format,
// building it on first use.
type RenderPassProvider interface {
	RenderPassFor(format core1_0.Format) (core1_0.RenderPass, error)
}

type FramebufferSizer interface {
	FramebufferSize() (width, height int)
}

// Manager owns the swapchain, its image views and one framebuffer per view.
// The whole set is created together and torn down together; nothing is
// patched in place.
type Manager struct {
	backend Backend
	passes  RenderPassProvider
	window  FramebufferSizer
	indices device.QueueFamilyIndices
	log     logrus.FieldLogger

	swapchain    khr_swapchain.Swapchain
	images       []core1_0.Image
	views        []core1_0.ImageView
	framebuffers []core1_0.Framebuffer

	format      khr_surface.SurfaceFormat
	extent      core1_0.Extent2D
	presentMode khr_surface.PresentMode
	created     bool
	generation  int
}

func NewManager(backend Backend, passes RenderPassProvider, window FramebufferSizer, indices device.QueueFamilyIndices, log logrus.FieldLogger) *Manager {
	return &Manager{
		backend: backend,
		passes:  passes,
		window:  window,
		indices: indices,
		log:     log,
	}
}

// CreateInfo derives the swapchain parameters from the surface support and
// the current framebuffer size. The surface handle is filled in by the backend.
func CreateInfo(support surface.SupportDetails, indices device.QueueFamilyIndices, framebufferWidth, framebufferHeight int) (khr_swapchain.SwapchainCreateInfo, error) {
	if support.Capabilities == nil {
		return khr_swapchain.SwapchainCreateInfo{}, ErrSurfaceCapabilities
	}

	surfaceFormat, err := ChooseFormat(support.Formats)
	if err != nil {
		return khr_swapchain.SwapchainCreateInfo{}, err
	}

	sharingMode, queueFamilyIndices := SharingMode(indices)

	return khr_swapchain.SwapchainCreateInfo{
		MinImageCount:    ImageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      ChooseExtent(support.Capabilities, framebufferWidth, framebufferHeight),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    ChoosePresentMode(support.PresentModes),
		Clipped:        true,
	}, nil
}

// Create builds the swapchain, one view per image and one framebuffer per
// view. Anything created before a failure stays tracked so Destroy releases it.
func (m *Manager) Create() error {
	if m.created {
		return errors.New("swapchain already created")
	}

	width, height := m.window.FramebufferSize()
	info, err := CreateInfo(m.backend.SurfaceSupport(), m.indices, width, height)
	if err != nil {
		return errors.Wrap(err, "derive swapchain parameters")
	}

	m.swapchain, err = m.backend.CreateSwapchain(info)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	m.created = true
	m.generation++
	m.format = khr_surface.SurfaceFormat{Format: info.ImageFormat, ColorSpace: info.ImageColorSpace}
	m.extent = info.ImageExtent
	m.presentMode = info.PresentMode

	err = m.createImageViews()
	if err != nil {
		return err
	}

	err = m.createFramebuffers()
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"generation":  m.generation,
		"width":       m.extent.Width,
		"height":      m.extent.Height,
		"format":      m.format.Format,
		"presentMode": m.presentMode,
		"images":      len(m.images),
	}).Info("created swapchain")

	return nil
}

func (m *Manager) createImageViews() error {
	images, err := m.backend.SwapchainImages(m.swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	m.images = images

	for _, image := range images {
		view, err := m.backend.CreateImageView(image, m.format.Format)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}

		m.views = append(m.views, view)
	}

	return nil
}

func (m *Manager) createFramebuffers() error {
	renderPass, err := m.passes.RenderPassFor(m.format.Format)
	if err != nil {
		return err
	}

	for _, view := range m.views {
		framebuffer, err := m.backend.CreateFramebuffer(renderPass, view, m.extent)
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}

		m.framebuffers = append(m.framebuffers, framebuffer)
	}

	return nil
}

// Recreate waits for the device to go idle, tears everything down and
// builds it again at the current framebuffer size. Callers make sure the
// framebuffer has a non-zero area first.
func (m *Manager) Recreate() error {
	err := m.backend.WaitIdle()
	if err != nil {
		return err
	}

	m.teardown()

	return m.Create()
}

// Destroy releases every swapchain resource. The device must already be idle.
func (m *Manager) Destroy() {
	m.teardown()
}

func (m *Manager) teardown() {
	for _, framebuffer := range m.framebuffers {
		m.backend.DestroyFramebuffer(framebuffer)
	}
	m.framebuffers = nil

	for _, view := range m.views {
		m.backend.DestroyImageView(view)
	}
	m.views = nil
	m.images = nil

	if m.created {
		m.backend.DestroySwapchain(m.swapchain)
		m.swapchain = khr_swapchain.Swapchain{}
		m.created = false
	}
}

func (m *Manager) Swapchain() khr_swapchain.Swapchain { return m.swapchain }

func (m *Manager) Extent() core1_0.Extent2D { return m.extent }

func (m *Manager) Format() khr_surface.SurfaceFormat { return m.format }

func (m *Manager) PresentMode() khr_surface.PresentMode { return m.presentMode }

func (m *Manager) ImageCount() int { return len(m.images) }

// Framebuffer returns the framebuffer bound to the swapchain image at index.
func (m *Manager) Framebuffer(index int) core1_0.Framebuffer { return m.framebuffers[index] }

// Generation counts how many times the swapchain has been created.
func (m *Manager) Generation() int { return m.generation }
