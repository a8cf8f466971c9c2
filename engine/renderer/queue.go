package renderer

import (
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// Enqueue adds a draw of mesh with the given model matrix to the current
// frame. Handles are checked when the frame is rendered.
func (r *Renderer) Enqueue(mesh metadata.MeshHandle, model math.Mat4) {
	r.requests.Push(metadata.RenderRequest{
		Mesh:  mesh,
		Model: model,
	})
}

func (r *Renderer) QueueLength() int {
	return r.requests.Len()
}

// Requests returns the pending requests in submission order.
func (r *Renderer) Requests() []metadata.RenderRequest {
	return append([]metadata.RenderRequest(nil), r.requests.Slice()...)
}
