package shaders_test

import (
	"testing"

	"github.com/vkngwrapper/triangle/internal/shader"
	"github.com/vkngwrapper/triangle/shaders"
)

func TestEmbeddedShadersLoad(t *testing.T) {
	code, err := shader.Load(shaders.FS, "vert.spv", "frag.spv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Header is five words; anything beyond that is the module body.
	if len(code.Vertex) <= 5 || len(code.Fragment) <= 5 {
		t.Errorf("vertex %d words, fragment %d words", len(code.Vertex), len(code.Fragment))
	}
}
