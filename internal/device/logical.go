package device

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
)

var ErrDeviceCreation = errors.New("failed to create logical device")

// LogicalDevice is the created device and the queues fetched from it.
type LogicalDevice struct {
	Driver        core1_0.CoreDeviceDriver
	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue
	Indices       QueueFamilyIndices
}

// QueueCreateInfos requests one queue at priority 1.0 from each distinct family.
func QueueCreateInfos(indices QueueFamilyIndices) []core1_0.DeviceQueueCreateInfo {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}
	return queueFamilyOptions
}

// EnabledExtensions is the required list plus the portability subset when the
// adapter advertises it, which is mandatory on portability implementations.
func EnabledExtensions(candidate Candidate, required []string) []string {
	extensionNames := append([]string{}, required...)

	if _, supported := candidate.Extensions[khr_portability_subset.ExtensionName]; supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	return extensionNames
}

// CreateLogicalDevice creates the device for a suitable candidate. A failure
// is marked with ErrDeviceCreation and is not retried.
func CreateLogicalDevice(instance core1_0.CoreInstanceDriver, candidate Candidate, required []string, log logrus.FieldLogger) (*LogicalDevice, error) {
	if !candidate.Indices.IsComplete() {
		return nil, errors.Mark(errors.Newf("adapter %s has unresolved queue families", candidate.Name), ErrDeviceCreation)
	}

	extensions := EnabledExtensions(candidate, required)
	dev, _, err := instance.CreateDevice(candidate.Device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      QueueCreateInfos(candidate.Indices),
		EnabledExtensionNames: extensions,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create device on %s", candidate.Name), ErrDeviceCreation)
	}

	driver, err := instance.BuildDeviceDriver(dev)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "build device driver for %s", candidate.Name), ErrDeviceCreation)
	}

	log.WithFields(logrus.Fields{
		"adapter":    candidate.Name,
		"graphics":   *candidate.Indices.GraphicsFamily,
		"present":    *candidate.Indices.PresentFamily,
		"extensions": extensions,
	}).Info("created logical device")

	return &LogicalDevice{
		Driver:        driver,
		GraphicsQueue: driver.GetQueue(*candidate.Indices.GraphicsFamily, 0),
		PresentQueue:  driver.GetQueue(*candidate.Indices.PresentFamily, 0),
		Indices:       candidate.Indices,
	}, nil
}

func (d *LogicalDevice) WaitIdle() error {
	_, err := d.Driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

func (d *LogicalDevice) Destroy() {
	if d.Driver != nil {
		d.Driver.DestroyDevice(nil)
		d.Driver = nil
	}
}
