package device

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/triangle/internal/surface"
)

// Scanner turns enumerated adapters into Candidates for one surface.
type Scanner struct {
	instance core1_0.CoreInstanceDriver
	surfaces khr_surface.ExtensionDriver
	surface  khr_surface.Surface
	required []string
	log      logrus.FieldLogger
}

func NewScanner(instance core1_0.CoreInstanceDriver, surfaces khr_surface.ExtensionDriver, target khr_surface.Surface, required []string, log logrus.FieldLogger) *Scanner {
	return &Scanner{
		instance: instance,
		surfaces: surfaces,
		surface:  target,
		required: required,
		log:      log,
	}
}

// PickAdapter inspects every adapter in enumeration order and returns the
// first suitable one.
func (s *Scanner) PickAdapter() (Candidate, error) {
	candidates, err := s.Candidates()
	if err != nil {
		return Candidate{}, err
	}

	return SelectAdapter(candidates, s.required, s.log)
}

func (s *Scanner) Candidates() ([]Candidate, error) {
	physicalDevices, _, err := s.instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	if len(physicalDevices) == 0 {
		return nil, errors.Mark(errors.New("no Vulkan-capable adapters present"), ErrNoSuitableAdapter)
	}

	candidates := make([]Candidate, 0, len(physicalDevices))
	for _, physicalDevice := range physicalDevices {
		candidate, err := s.inspect(physicalDevice)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (s *Scanner) inspect(physicalDevice core1_0.PhysicalDevice) (Candidate, error) {
	candidate := Candidate{
		Device:     physicalDevice,
		Extensions: map[string]struct{}{},
	}

	properties, err := s.instance.GetPhysicalDeviceProperties(physicalDevice)
	if err != nil {
		return candidate, errors.Wrap(err, "get physical device properties")
	}
	candidate.Name = properties.DriverName

	var familyFlags []core1_0.QueueFlags
	for _, family := range s.instance.GetPhysicalDeviceQueueFamilyProperties(physicalDevice) {
		familyFlags = append(familyFlags, family.QueueFlags)
	}

	candidate.Indices, err = ResolveQueueFamilies(familyFlags, func(family int) (bool, error) {
		supported, _, err := s.surfaces.GetPhysicalDeviceSurfaceSupport(s.surface, physicalDevice, family)
		return supported, err
	})
	if err != nil {
		return candidate, err
	}

	extensions, _, err := s.instance.EnumerateDeviceExtensionProperties(physicalDevice)
	if err != nil {
		return candidate, errors.Wrapf(err, "enumerate device extensions for %s", candidate.Name)
	}
	if len(extensions) == 0 {
		s.log.WithField("adapter", candidate.Name).Warn("adapter reported no device extensions")
	}
	for name := range extensions {
		candidate.Extensions[name] = struct{}{}
	}

	// Surface support is only meaningful once the swapchain extension is there.
	if len(candidate.MissingExtensions(s.required)) == 0 {
		candidate.Support = surface.QuerySupport(s.surfaces, s.surface, physicalDevice, s.log.WithField("adapter", candidate.Name))
	}

	return candidate, nil
}
