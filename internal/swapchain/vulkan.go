package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/surface"
)

// VulkanBackend implements Backend on a real device.
type VulkanBackend struct {
	driver         core1_0.CoreDeviceDriver
	swapchains     khr_swapchain.ExtensionDriver
	surfaces       surface.Querier
	surface        khr_surface.Surface
	physicalDevice core1_0.PhysicalDevice
	log            logrus.FieldLogger
}

func NewVulkanBackend(driver core1_0.CoreDeviceDriver, swapchains khr_swapchain.ExtensionDriver, surfaces surface.Querier, target khr_surface.Surface, physicalDevice core1_0.PhysicalDevice, log logrus.FieldLogger) *VulkanBackend {
	return &VulkanBackend{
		driver:         driver,
		swapchains:     swapchains,
		surfaces:       surfaces,
		surface:        target,
		physicalDevice: physicalDevice,
		log:            log,
	}
}

func (b *VulkanBackend) SurfaceSupport() surface.SupportDetails {
	return surface.QuerySupport(b.surfaces, b.surface, b.physicalDevice, b.log)
}

func (b *VulkanBackend) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error) {
	info.Surface = b.surface
	swapchain, _, err := b.swapchains.CreateSwapchain(nil, info)
	return swapchain, err
}

func (b *VulkanBackend) DestroySwapchain(swapchain khr_swapchain.Swapchain) {
	b.swapchains.DestroySwapchain(swapchain, nil)
}

func (b *VulkanBackend) SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, error) {
	images, _, err := b.swapchains.GetSwapchainImages(swapchain)
	return images, err
}

func (b *VulkanBackend) CreateImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error) {
	imageView, _, err := b.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

func (b *VulkanBackend) DestroyImageView(view core1_0.ImageView) {
	b.driver.DestroyImageView(view, nil)
}

func (b *VulkanBackend) CreateFramebuffer(renderPass core1_0.RenderPass, view core1_0.ImageView, extent core1_0.Extent2D) (core1_0.Framebuffer, error) {
	framebuffer, _, err := b.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPass,
		Layers:      1,
		Attachments: []core1_0.ImageView{view},
		Width:       extent.Width,
		Height:      extent.Height,
	})
	return framebuffer, err
}

func (b *VulkanBackend) DestroyFramebuffer(framebuffer core1_0.Framebuffer) {
	b.driver.DestroyFramebuffer(framebuffer, nil)
}

func (b *VulkanBackend) WaitIdle() error {
	_, err := b.driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}
