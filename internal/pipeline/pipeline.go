package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/triangle/internal/shader"
)

var ErrPipelineCreation = errors.New("failed to build graphics pipeline")

// Device is the set of device calls the builder makes.
type Device interface {
	CreateShaderModule(code []uint32) (core1_0.ShaderModule, error)
	DestroyShaderModule(module core1_0.ShaderModule)
	CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, error)
	DestroyRenderPass(renderPass core1_0.RenderPass)
	CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, error)
	DestroyPipelineLayout(layout core1_0.PipelineLayout)
	CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, error)
	DestroyPipeline(pipeline core1_0.Pipeline)
}

// RenderPassInfo describes the single-subpass pass that clears one colour
// attachment and leaves it ready for presentation.
func RenderPassInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

// GraphicsPipelineInfo describes the fixed-function triangle pipeline. The
// vertices live in the vertex shader, so there is no vertex input. Viewport
// and scissor are dynamic; the single placeholder entries only fix the count.
func GraphicsPipelineInfo(vertShader, fragShader core1_0.ShaderModule, layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) core1_0.GraphicsPipelineCreateInfo {
	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{}},
		Scissors:  []core1_0.Rect2D{{}},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	dynamicState := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			vertStage,
			fragStage,
		},
		VertexInputState:   &core1_0.PipelineVertexInputStateCreateInfo{},
		InputAssemblyState: inputAssembly,
		ViewportState:      viewport,
		RasterizationState: rasterization,
		MultisampleState:   multisample,
		ColorBlendState:    colorBlend,
		DynamicState:       dynamicState,
		Layout:             layout,
		RenderPass:         renderPass,
		Subpass:            0,
		BasePipelineIndex:  -1,
	}
}

// Builder owns the render pass, pipeline layout and graphics pipeline. They
// are built once for a swapchain format and shared by every frame; only a
// format change causes a rebuild.
type Builder struct {
	device Device
	code   shader.Bytecode
	log    logrus.FieldLogger

	format     core1_0.Format
	renderPass core1_0.RenderPass
	layout     core1_0.PipelineLayout
	pipeline   core1_0.Pipeline

	hasRenderPass bool
	hasLayout     bool
	hasPipeline   bool
}

func NewBuilder(device Device, code shader.Bytecode, log logrus.FieldLogger) *Builder {
	return &Builder{device: device, code: code, log: log}
}

// RenderPassFor returns the render pass for format, building the render pass
// and pipeline on first use or after a format change.
func (b *Builder) RenderPassFor(format core1_0.Format) (core1_0.RenderPass, error) {
	if b.hasPipeline && b.format == format {
		return b.renderPass, nil
	}

	if b.hasRenderPass {
		b.log.WithFields(logrus.Fields{"old": b.format, "new": format}).Info("swapchain format changed, rebuilding pipeline")
		b.Destroy()
	}

	err := b.build(format)
	if err != nil {
		b.Destroy()
		return core1_0.RenderPass{}, errors.Mark(err, ErrPipelineCreation)
	}

	b.log.WithField("format", format).Info("built render pass and graphics pipeline")
	return b.renderPass, nil
}

func (b *Builder) build(format core1_0.Format) error {
	var err error

	b.renderPass, err = b.device.CreateRenderPass(RenderPassInfo(format))
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	b.hasRenderPass = true
	b.format = format

	b.layout, err = b.device.CreatePipelineLayout(core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	b.hasLayout = true

	vertShader, err := b.device.CreateShaderModule(b.code.Vertex)
	if err != nil {
		return errors.Wrap(err, "create vertex shader module")
	}
	defer b.device.DestroyShaderModule(vertShader)

	fragShader, err := b.device.CreateShaderModule(b.code.Fragment)
	if err != nil {
		return errors.Wrap(err, "create fragment shader module")
	}
	defer b.device.DestroyShaderModule(fragShader)

	b.pipeline, err = b.device.CreateGraphicsPipeline(GraphicsPipelineInfo(vertShader, fragShader, b.layout, b.renderPass))
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	b.hasPipeline = true

	return nil
}

func (b *Builder) Pipeline() core1_0.Pipeline { return b.pipeline }

func (b *Builder) RenderPass() core1_0.RenderPass { return b.renderPass }

// Destroy releases pipeline, layout and render pass in that order.
func (b *Builder) Destroy() {
	if b.hasPipeline {
		b.device.DestroyPipeline(b.pipeline)
		b.pipeline = core1_0.Pipeline{}
		b.hasPipeline = false
	}

	if b.hasLayout {
		b.device.DestroyPipelineLayout(b.layout)
		b.layout = core1_0.PipelineLayout{}
		b.hasLayout = false
	}

	if b.hasRenderPass {
		b.device.DestroyRenderPass(b.renderPass)
		b.renderPass = core1_0.RenderPass{}
		b.hasRenderPass = false
	}
}
