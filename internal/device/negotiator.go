package device

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/triangle/internal/surface"
)

var ErrNoSuitableAdapter = errors.New("failed to find a suitable GPU")

// QueueFamilyIndices holds the chosen graphics and present families. A nil
// field means the role has not been resolved; 0 is a valid family index.
type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Unique returns the resolved family indices without duplicates, graphics first.
func (i QueueFamilyIndices) Unique() []int {
	var families []int
	if i.GraphicsFamily != nil {
		families = append(families, *i.GraphicsFamily)
	}
	if i.PresentFamily != nil && (i.GraphicsFamily == nil || *i.PresentFamily != *i.GraphicsFamily) {
		families = append(families, *i.PresentFamily)
	}
	return families
}

// ResolveQueueFamilies scans families in index order. The first
// graphics-capable family and the first present-capable family are recorded
// independently, and scanning stops as soon as both are known.
func ResolveQueueFamilies(families []core1_0.QueueFlags, presentSupport func(family int) (bool, error)) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for familyIdx, flags := range families {
		if indices.GraphicsFamily == nil && (flags&core1_0.QueueGraphics) != 0 {
			graphics := familyIdx
			indices.GraphicsFamily = &graphics
		}

		if indices.PresentFamily == nil {
			supported, err := presentSupport(familyIdx)
			if err != nil {
				return indices, errors.Wrapf(err, "query present support for queue family %d", familyIdx)
			}

			if supported {
				present := familyIdx
				indices.PresentFamily = &present
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

// Candidate is one enumerated adapter together with everything needed to
// decide whether it can drive the surface.
type Candidate struct {
	Device core1_0.PhysicalDevice
	Name   string

	Indices    QueueFamilyIndices
	Extensions map[string]struct{}
	Support    surface.SupportDetails
}

// MissingExtensions lists required device extensions the adapter lacks, sorted.
func (c Candidate) MissingExtensions(required []string) []string {
	return missingNames(c.Extensions, required)
}

func (c Candidate) Suitable(required []string) bool {
	return c.rejection(required) == ""
}

func (c Candidate) rejection(required []string) string {
	switch {
	case c.Indices.GraphicsFamily == nil:
		return "no graphics queue family"
	case c.Indices.PresentFamily == nil:
		return "no present queue family"
	case len(c.MissingExtensions(required)) > 0:
		return "missing device extensions"
	case len(c.Support.Formats) == 0:
		return "no surface formats"
	case len(c.Support.PresentModes) == 0:
		return "no present modes"
	}
	return ""
}

// SelectAdapter returns the first suitable candidate in enumeration order.
// There is no ranking.
func SelectAdapter(candidates []Candidate, required []string, log logrus.FieldLogger) (Candidate, error) {
	for _, candidate := range candidates {
		reason := candidate.rejection(required)
		if reason == "" {
			log.WithField("adapter", candidate.Name).Info("selected adapter")
			return candidate, nil
		}

		log.WithFields(logrus.Fields{
			"adapter": candidate.Name,
			"reason":  reason,
			"missing": candidate.MissingExtensions(required),
		}).Debug("rejected adapter")
	}

	return Candidate{}, errors.Mark(errors.Newf("none of %d adapters can present to the surface", len(candidates)), ErrNoSuitableAdapter)
}
