// Package shaders carries the compiled triangle shaders. The GLSL sources
// sit next to the SPIR-V; regenerate with go generate after editing them.
package shaders

import "embed"

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv

//go:embed *.spv
var FS embed.FS
