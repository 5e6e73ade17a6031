package pipeline

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// VulkanDevice implements Device on a real device.
type VulkanDevice struct {
	driver core1_0.CoreDeviceDriver
}

func NewVulkanDevice(driver core1_0.CoreDeviceDriver) *VulkanDevice {
	return &VulkanDevice{driver: driver}
}

func (d *VulkanDevice) CreateShaderModule(code []uint32) (core1_0.ShaderModule, error) {
	module, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, err
}

func (d *VulkanDevice) DestroyShaderModule(module core1_0.ShaderModule) {
	d.driver.DestroyShaderModule(module, nil)
}

func (d *VulkanDevice) CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, error) {
	renderPass, _, err := d.driver.CreateRenderPass(nil, info)
	return renderPass, err
}

func (d *VulkanDevice) DestroyRenderPass(renderPass core1_0.RenderPass) {
	d.driver.DestroyRenderPass(renderPass, nil)
}

func (d *VulkanDevice) CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, error) {
	layout, _, err := d.driver.CreatePipelineLayout(nil, info)
	return layout, err
}

func (d *VulkanDevice) DestroyPipelineLayout(layout core1_0.PipelineLayout) {
	d.driver.DestroyPipelineLayout(layout, nil)
}

func (d *VulkanDevice) CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, error) {
	pipelines, _, err := d.driver.CreateGraphicsPipelines(nil, nil, info)
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	return pipelines[0], nil
}

func (d *VulkanDevice) DestroyPipeline(pipeline core1_0.Pipeline) {
	d.driver.DestroyPipeline(pipeline, nil)
}
