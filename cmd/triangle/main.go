package main

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/triangle/internal/config"
	"github.com/vkngwrapper/triangle/internal/logging"
	"github.com/vkngwrapper/triangle/internal/renderer"
	"github.com/vkngwrapper/triangle/internal/shader"
	"github.com/vkngwrapper/triangle/shaders"
)

func main() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("%+v\n", err)
	}

	log := logging.New(cfg.LogLevel)

	code, err := shader.Load(cfg.Shaders(shaders.FS), cfg.VertexShader, cfg.FragmentShader)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	app := renderer.New(cfg, code, log)
	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
