package device

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

// DebugMessenger forwards validation output into the logger. It never
// influences control flow.
type DebugMessenger struct {
	driver    ext_debug_utils.ExtensionDriver
	messenger ext_debug_utils.DebugUtilsMessenger
}

func messengerCreateInfo(log logrus.FieldLogger) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	sink := log.WithField("component", "validation")

	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			return LogMessage(sink, msgType, severity, data)
		},
	}
}

// LogMessage is the diagnostics sink. It always returns false so the
// triggering call is never aborted.
func LogMessage(log logrus.FieldLogger, msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	entry := log.WithFields(logrus.Fields{
		"type":     msgType.String(),
		"severity": severity.String(),
	})

	message := ""
	if data != nil {
		message = data.Message
	}

	switch {
	case (severity & ext_debug_utils.SeverityError) != 0:
		entry.Error(message)
	case (severity & ext_debug_utils.SeverityWarning) != 0:
		entry.Warn(message)
	default:
		entry.Debug(message)
	}

	return false
}

// NewDebugMessenger registers the diagnostics sink on an instance created
// with validation enabled.
func NewDebugMessenger(instance core1_0.CoreInstanceDriver, log logrus.FieldLogger) (*DebugMessenger, error) {
	driver := ext_debug_utils.CreateExtensionDriverFromCoreDriver(instance)
	messenger, _, err := driver.CreateDebugUtilsMessenger(nil, messengerCreateInfo(log))
	if err != nil {
		return nil, errors.Wrap(err, "create debug messenger")
	}

	return &DebugMessenger{driver: driver, messenger: messenger}, nil
}

func (m *DebugMessenger) Destroy() {
	if m.messenger.Initialized() {
		m.driver.DestroyDebugUtilsMessenger(m.messenger, nil)
		m.messenger = ext_debug_utils.DebugUtilsMessenger{}
	}
}
