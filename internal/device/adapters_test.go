package device

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// fakeAdapter exposes a single graphics+present capable adapter.
type fakeAdapter struct {
	core1_0.CoreInstanceDriver

	extensions []string
}

func (a *fakeAdapter) EnumeratePhysicalDevices() ([]core1_0.PhysicalDevice, common.VkResult, error) {
	return []core1_0.PhysicalDevice{{}}, core1_0.VKSuccess, nil
}

func (a *fakeAdapter) GetPhysicalDeviceProperties(core1_0.PhysicalDevice) (*core1_0.PhysicalDeviceProperties, error) {
	return &core1_0.PhysicalDeviceProperties{DriverName: "gpu"}, nil
}

func (a *fakeAdapter) GetPhysicalDeviceQueueFamilyProperties(core1_0.PhysicalDevice) []*core1_0.QueueFamilyProperties {
	return []*core1_0.QueueFamilyProperties{{QueueFlags: core1_0.QueueGraphics, QueueCount: 1}}
}

func (a *fakeAdapter) EnumerateDeviceExtensionProperties(core1_0.PhysicalDevice) (map[string]*core1_0.ExtensionProperties, common.VkResult, error) {
	extensions := map[string]*core1_0.ExtensionProperties{}
	for _, name := range a.extensions {
		extensions[name] = &core1_0.ExtensionProperties{ExtensionName: name}
	}
	return extensions, core1_0.VKSuccess, nil
}

type countingSurfaces struct {
	khr_surface.ExtensionDriver

	queries int
}

func (s *countingSurfaces) GetPhysicalDeviceSurfaceSupport(khr_surface.Surface, core1_0.PhysicalDevice, int) (bool, common.VkResult, error) {
	return true, core1_0.VKSuccess, nil
}

func (s *countingSurfaces) GetPhysicalDeviceSurfaceCapabilities(khr_surface.Surface, core1_0.PhysicalDevice) (*khr_surface.SurfaceCapabilities, common.VkResult, error) {
	s.queries++
	return &khr_surface.SurfaceCapabilities{MinImageCount: 2}, core1_0.VKSuccess, nil
}

func (s *countingSurfaces) GetPhysicalDeviceSurfaceFormats(khr_surface.Surface, core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, common.VkResult, error) {
	return []khr_surface.SurfaceFormat{{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}}, core1_0.VKSuccess, nil
}

func (s *countingSurfaces) GetPhysicalDeviceSurfacePresentModes(khr_surface.Surface, core1_0.PhysicalDevice) ([]khr_surface.PresentMode, common.VkResult, error) {
	return []khr_surface.PresentMode{khr_surface.PresentModeFIFO}, core1_0.VKSuccess, nil
}

func TestSurfaceSupportNeedsSwapchainExtension(t *testing.T) {
	tests := []struct {
		name        string
		extensions  []string
		wantQueries int
		wantPicked  bool
	}{
		{name: "swapchain extension present", extensions: []string{khr_swapchain.ExtensionName}, wantQueries: 1, wantPicked: true},
		{name: "swapchain extension missing", extensions: []string{"VK_KHR_maintenance1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			surfaces := &countingSurfaces{}
			scanner := NewScanner(&fakeAdapter{extensions: tt.extensions}, surfaces, khr_surface.Surface{}, required, log)

			candidates, err := scanner.Candidates()
			if err != nil {
				t.Fatalf("Candidates: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("candidates = %d, want 1", len(candidates))
			}
			if surfaces.queries != tt.wantQueries {
				t.Errorf("surface capability queries = %d, want %d", surfaces.queries, tt.wantQueries)
			}

			candidate := candidates[0]
			if candidate.Name != "gpu" {
				t.Errorf("name = %q", candidate.Name)
			}
			if !tt.wantPicked {
				if candidate.Support.Adequate() {
					t.Error("support details filled in without the swapchain extension")
				}
				return
			}

			picked, err := scanner.PickAdapter()
			if err != nil {
				t.Fatalf("PickAdapter: %v", err)
			}
			if *picked.Indices.GraphicsFamily != 0 || *picked.Indices.PresentFamily != 0 {
				t.Errorf("indices = %d/%d", *picked.Indices.GraphicsFamily, *picked.Indices.PresentFamily)
			}
		})
	}
}
