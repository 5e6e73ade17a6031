package config

import (
	"io/fs"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

const (
	envTitle     = "TRIANGLE_TITLE"
	envWidth     = "TRIANGLE_WIDTH"
	envHeight    = "TRIANGLE_HEIGHT"
	envShaderDir = "TRIANGLE_SHADER_DIR"
	envLogLevel  = "TRIANGLE_LOG_LEVEL"
)

// Config is built once at startup and handed by value to every component.
// Nothing downstream mutates it.
type Config struct {
	Title  string
	Width  int
	Height int

	// ShaderDir overrides the embedded shaders when set.
	ShaderDir      string
	VertexShader   string
	FragmentShader string

	LogLevel   logrus.Level
	ClearColor mgl32.Vec4

	// EnableValidation is fixed at compile time by the "validation" build tag.
	EnableValidation bool
	ValidationLayers []string
	DeviceExtensions []string
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Title:  "Vulkan",
		Width:  800,
		Height: 640,

		VertexShader:   "vert.spv",
		FragmentShader: "frag.spv",

		LogLevel:   logrus.InfoLevel,
		ClearColor: mgl32.Vec4{0, 0, 0, 1},

		EnableValidation: enableValidationLayers,
		ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		DeviceExtensions: []string{khr_swapchain.ExtensionName},
	}
}

// Load reads an optional .env file from the working directory, applies any
// TRIANGLE_* overrides from the environment on top of Default and validates
// the result.
func Load() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from Default and the given environment lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(envTitle); ok && v != "" {
		cfg.Title = v
	}

	if v, ok := lookup(envShaderDir); ok && v != "" {
		cfg.ShaderDir = v
	}

	if v, ok := lookup(envWidth); ok {
		width, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", envWidth)
		}
		cfg.Width = width
	}

	if v, ok := lookup(envHeight); ok {
		height, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", envHeight)
		}
		cfg.Height = height
	}

	if v, ok := lookup(envLogLevel); ok {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", envLogLevel)
		}
		cfg.LogLevel = level
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if len(c.DeviceExtensions) == 0 {
		return errors.New("at least one device extension is required")
	}
	if c.VertexShader == "" || c.FragmentShader == "" {
		return errors.New("shader file names must not be empty")
	}

	return nil
}

// Shaders returns the directory named by ShaderDir, or embedded when no
// override is configured.
func (c Config) Shaders(embedded fs.FS) fs.FS {
	if c.ShaderDir == "" {
		return embedded
	}
	return os.DirFS(c.ShaderDir)
}
