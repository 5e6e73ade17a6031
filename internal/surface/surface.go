package surface

import (
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// Querier is the part of the khr_surface extension driver used to inspect
// what a surface supports on a given adapter.
type Querier interface {
	GetPhysicalDeviceSurfaceCapabilities(surface khr_surface.Surface, device core1_0.PhysicalDevice) (*khr_surface.SurfaceCapabilities, common.VkResult, error)
	GetPhysicalDeviceSurfaceFormats(surface khr_surface.Surface, device core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, common.VkResult, error)
	GetPhysicalDeviceSurfacePresentModes(surface khr_surface.Surface, device core1_0.PhysicalDevice) ([]khr_surface.PresentMode, common.VkResult, error)
}

// SupportDetails describes what a surface allows on one adapter.
type SupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain could be built from these details.
func (d SupportDetails) Adequate() bool {
	return d.Capabilities != nil && len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// QuerySupport never fails. A query error is logged and the corresponding
// field is left empty, which makes the adapter inadequate upstream.
func QuerySupport(querier Querier, surface khr_surface.Surface, device core1_0.PhysicalDevice, log logrus.FieldLogger) SupportDetails {
	var details SupportDetails
	var err error

	details.Capabilities, _, err = querier.GetPhysicalDeviceSurfaceCapabilities(surface, device)
	if err != nil {
		log.WithError(err).Warn("query surface capabilities failed")
		return SupportDetails{}
	}

	details.Formats, _, err = querier.GetPhysicalDeviceSurfaceFormats(surface, device)
	if err != nil {
		log.WithError(err).Warn("query surface formats failed")
		details.Formats = nil
	}

	details.PresentModes, _, err = querier.GetPhysicalDeviceSurfacePresentModes(surface, device)
	if err != nil {
		log.WithError(err).Warn("query surface present modes failed")
		details.PresentModes = nil
	}

	return details
}
