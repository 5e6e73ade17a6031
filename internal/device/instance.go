package device

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"

	"github.com/vkngwrapper/triangle/internal/config"
)

// Instance is the created Vulkan instance and whether validation ended up on.
type Instance struct {
	Driver     core1_0.CoreInstanceDriver
	Validation bool
}

// missingNames returns the entries of required that are not keys of available, sorted.
func missingNames[V any](available map[string]V, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// CreateInstance creates the instance with the window's extensions enabled.
// Requested validation layers are checked against the available layer
// properties; if any are missing, validation is switched off with a warning
// rather than failing.
func CreateInstance(global core1_0.GlobalDriver, cfg config.Config, windowExtensions []string, log logrus.FieldLogger) (*Instance, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    cfg.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := global.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}

	if len(extensions) == 0 {
		log.Warn("instance extension enumeration returned nothing, enabling window extensions unchecked")
	} else if missing := missingNames(extensions, windowExtensions); len(missing) > 0 {
		return nil, errors.Newf("cannot initialize window surface: missing instance extensions %v", missing)
	}
	instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, windowExtensions...)

	validation := cfg.EnableValidation
	if validation {
		layers, _, err := global.AvailableLayers()
		if err != nil {
			log.WithError(err).Warn("enumerate instance layers failed, continuing without validation")
			validation = false
		} else if missing := missingNames(layers, cfg.ValidationLayers); len(missing) > 0 {
			log.WithField("missing", missing).Warn("validation layers not available, continuing without validation")
			validation = false
		}
	}

	if validation {
		if _, ok := extensions[ext_debug_utils.ExtensionName]; !ok && len(extensions) > 0 {
			log.Warn("debug utils extension not available, continuing without validation")
			validation = false
		}
	}

	if validation {
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, cfg.ValidationLayers...)
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		// Chained so instance creation and destruction are covered as well.
		instanceOptions.Next = messengerCreateInfo(log)
	}

	if _, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]; enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	instance, _, err := global.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	driver, err := global.BuildInstanceDriver(instance)
	if err != nil {
		return nil, errors.Wrap(err, "build instance driver")
	}

	log.WithFields(logrus.Fields{
		"extensions": instanceOptions.EnabledExtensionNames,
		"layers":     instanceOptions.EnabledLayerNames,
	}).Info("created instance")

	return &Instance{Driver: driver, Validation: validation}, nil
}

func (i *Instance) Destroy() {
	if i.Driver != nil {
		i.Driver.DestroyInstance(nil)
		i.Driver = nil
	}
}
