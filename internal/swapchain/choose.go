package swapchain

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/triangle/internal/device"
)

var ErrNoSurfaceFormats = errors.New("surface reports no formats")

// PreferredFormat is chosen whenever the surface offers it.
var PreferredFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatR8G8B8A8SRGB,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// ChooseFormat picks PreferredFormat if listed, otherwise the first format.
func ChooseFormat(availableFormats []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(availableFormats) == 0 {
		return khr_surface.SurfaceFormat{}, ErrNoSurfaceFormats
	}

	for _, format := range availableFormats {
		if format.Format == PreferredFormat.Format && format.ColorSpace == PreferredFormat.ColorSpace {
			return format, nil
		}
	}

	return availableFormats[0], nil
}

// ChoosePresentMode prefers mailbox and otherwise settles for FIFO, the only
// mode every implementation must support.
func ChoosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// The surface reports 0xFFFFFFFF in both components of its current extent
// when the swapchain decides the size. Truncating to uint32 matches it whether
// the int was sign-extended to -1 or zero-extended.
func undefinedExtent(extent core1_0.Extent2D) bool {
	return uint32(extent.Width) == math.MaxUint32 && uint32(extent.Height) == math.MaxUint32
}

// ChooseExtent uses the surface's current extent unless it is undefined, in
// which case the framebuffer size is clamped into the supported range one
// component at a time.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, framebufferWidth, framebufferHeight int) core1_0.Extent2D {
	if !undefinedExtent(capabilities.CurrentExtent) {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(framebufferWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(framebufferHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

// ImageCount asks for one image above the minimum, capped by the maximum
// when the surface sets one (0 means unbounded).
func ImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SharingMode shares images concurrently when graphics and present live in
// different families and exclusively otherwise.
func SharingMode(indices device.QueueFamilyIndices) (core1_0.SharingMode, []int) {
	if *indices.GraphicsFamily != *indices.PresentFamily {
		return core1_0.SharingModeConcurrent, []int{*indices.GraphicsFamily, *indices.PresentFamily}
	}

	return core1_0.SharingModeExclusive, nil
}
