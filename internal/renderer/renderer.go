package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/config"
	"github.com/vkngwrapper/triangle/internal/device"
	"github.com/vkngwrapper/triangle/internal/frame"
	"github.com/vkngwrapper/triangle/internal/logging"
	"github.com/vkngwrapper/triangle/internal/pipeline"
	"github.com/vkngwrapper/triangle/internal/shader"
	"github.com/vkngwrapper/triangle/internal/swapchain"
	"github.com/vkngwrapper/triangle/internal/window"
)

// Application owns every object between the window and the frame loop and
// tears them down in reverse creation order.
type Application struct {
	cfg  config.Config
	code shader.Bytecode
	log  logrus.FieldLogger

	window *window.Window

	globalDriver core1_0.GlobalDriver
	instance     *device.Instance
	messenger    *device.DebugMessenger

	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	device    *device.LogicalDevice
	pipelines *pipeline.Builder
	swapchain *swapchain.Manager
	ops       *frame.VulkanOps
	scheduler *frame.Scheduler
}

func New(cfg config.Config, code shader.Bytecode, log logrus.FieldLogger) *Application {
	return &Application{
		cfg:  cfg,
		code: code,
		log:  log.WithField("session", uuid.New().String()),
	}
}

// Run opens the window, builds the Vulkan objects and renders until the
// window is closed. Everything created is released before Run returns.
func (app *Application) Run() error {
	err := app.initWindow()
	if err != nil {
		return err
	}
	defer app.cleanup()

	err = app.initVulkan()
	if err != nil {
		return err
	}

	return app.mainLoop()
}

func (app *Application) initWindow() error {
	var err error
	app.window, err = window.New(app.cfg.Title, app.cfg.Width, app.cfg.Height, logging.Component(app.log, "window"))
	if err != nil {
		return err
	}

	app.globalDriver, err = app.window.CreateDriver()
	if err != nil {
		app.window.Destroy()
		app.window = nil
		return err
	}

	return nil
}

func (app *Application) initVulkan() error {
	err := app.createInstance()
	if err != nil {
		return err
	}

	err = app.createSurface()
	if err != nil {
		return err
	}

	candidate, err := app.pickPhysicalDevice()
	if err != nil {
		return err
	}

	app.device, err = device.CreateLogicalDevice(app.instance.Driver, candidate, app.cfg.DeviceExtensions, logging.Component(app.log, "device"))
	if err != nil {
		return err
	}

	swapchainExtension := khr_swapchain.CreateExtensionDriverFromCoreDriver(app.device.Driver)

	err = app.createSwapchain(swapchainExtension, candidate.Device)
	if err != nil {
		return err
	}

	return app.createScheduler(swapchainExtension)
}

func (app *Application) createInstance() error {
	var err error
	app.instance, err = device.CreateInstance(app.globalDriver, app.cfg, app.window.RequiredInstanceExtensions(), logging.Component(app.log, "instance"))
	if err != nil {
		return err
	}

	if !app.instance.Validation {
		return nil
	}

	app.messenger, err = device.NewDebugMessenger(app.instance.Driver, app.log)
	return err
}

func (app *Application) createSurface() error {
	var err error
	app.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(app.instance.Driver)
	app.surface, err = app.window.CreateSurface(app.instance.Driver.Instance(), app.surfaceExtension)
	return err
}

func (app *Application) pickPhysicalDevice() (device.Candidate, error) {
	scanner := device.NewScanner(app.instance.Driver, app.surfaceExtension, app.surface, app.cfg.DeviceExtensions, logging.Component(app.log, "negotiator"))
	return scanner.PickAdapter()
}

func (app *Application) createSwapchain(swapchainExtension khr_swapchain.ExtensionDriver, physicalDevice core1_0.PhysicalDevice) error {
	app.pipelines = pipeline.NewBuilder(
		pipeline.NewVulkanDevice(app.device.Driver),
		app.code,
		logging.Component(app.log, "pipeline"),
	)

	swapchainLog := logging.Component(app.log, "swapchain")
	backend := swapchain.NewVulkanBackend(app.device.Driver, swapchainExtension, app.surfaceExtension, app.surface, physicalDevice, swapchainLog)
	app.swapchain = swapchain.NewManager(backend, app.pipelines, app.window, app.device.Indices, swapchainLog)

	return app.swapchain.Create()
}

func (app *Application) createScheduler(swapchainExtension khr_swapchain.ExtensionDriver) error {
	var err error
	app.ops, err = frame.NewVulkanOps(
		app.device.Driver,
		swapchainExtension,
		*app.device.Indices.GraphicsFamily,
		app.device.GraphicsQueue,
		app.device.PresentQueue,
	)
	if err != nil {
		return err
	}

	target := &chain{
		swapchain:  app.swapchain,
		pipelines:  app.pipelines,
		clearColor: app.cfg.ClearColor,
	}

	app.scheduler, err = frame.New(app.ops, target, app.window, logging.Component(app.log, "frame"))
	if err != nil {
		return errors.Wrap(err, "create frame scheduler")
	}

	return nil
}

func (app *Application) mainLoop() error {
	for {
		app.window.PollEvents()
		if app.window.ShouldClose() {
			break
		}

		err := app.scheduler.Tick()
		if err != nil {
			return err
		}
	}

	stats := app.scheduler.Stats()
	app.log.WithFields(logrus.Fields{
		"frames":       stats.Ticks,
		"recreations":  stats.Recreations,
		"avgFrameTime": stats.AverageFrameTime(),
	}).Info("main loop finished")

	return app.device.WaitIdle()
}

// cleanup tolerates a partially initialised application.
func (app *Application) cleanup() {
	if app.device != nil {
		err := app.device.WaitIdle()
		if err != nil {
			app.log.WithError(err).Warn("device did not go idle before cleanup")
		}
	}

	if app.scheduler != nil {
		app.scheduler.Destroy()
	} else if app.ops != nil {
		app.ops.Close()
	}

	if app.pipelines != nil {
		app.pipelines.Destroy()
	}

	if app.swapchain != nil {
		app.swapchain.Destroy()
	}

	if app.device != nil {
		app.device.Destroy()
	}

	if app.messenger != nil {
		app.messenger.Destroy()
	}

	if app.surface.Initialized() {
		app.surfaceExtension.DestroySurface(app.surface, nil)
	}

	if app.instance != nil {
		app.instance.Destroy()
	}

	if app.window != nil {
		app.window.Destroy()
	}

	app.log.Info("cleanup complete")
}
