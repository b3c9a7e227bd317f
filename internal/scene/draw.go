package scene

import (
	"encoding/json"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// DrawCommand represents a single drawing operation for the host to execute
// on its 2D context.
type DrawCommand struct {
	Op          string    `json:"op"`                    // "rect", "line", "image"
	Node        string    `json:"node,omitempty"`        // For hit correlation
	Transform   []float64 `json:"transform"`             // [a, b, c, d, e, f] affine matrix
	Width       float64   `json:"width,omitempty"`       // Rect/image size
	Height      float64   `json:"height,omitempty"`      //
	Points      []float64 `json:"points,omitempty"`      // Line points
	Fill        string    `json:"fill,omitempty"`        // Fill color
	Stroke      string    `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64   `json:"strokeWidth,omitempty"` // Stroke width
	Dash        []float64 `json:"dash,omitempty"`        // Stroke dash pattern
	Opacity     float64   `json:"opacity"`               // Global alpha
	Composite   string    `json:"composite,omitempty"`   // Composite operation
	Image       string    `json:"image,omitempty"`       // Image name for lookup
}

// Compile generates a draw command buffer from a tree, in painter's order.
func Compile(root *Node) []DrawCommand {
	if root == nil {
		return nil
	}
	var commands []DrawCommand
	compileNode(root, 1, &commands)
	return commands
}

func compileNode(n *Node, opacity float64, commands *[]DrawCommand) {
	if n == nil || !n.visible || n.destroyed {
		return
	}
	opacity *= n.Paint.Opacity

	m := n.AbsoluteTransform()
	switch n.kind {
	case KindRect:
		*commands = append(*commands, DrawCommand{
			Op:          "rect",
			Node:        n.name,
			Transform:   m[:],
			Width:       n.width,
			Height:      n.height,
			Fill:        n.Paint.Fill,
			Stroke:      n.Paint.Stroke,
			StrokeWidth: n.Paint.StrokeWidth,
			Dash:        n.Paint.Dash,
			Opacity:     opacity,
		})
	case KindLine:
		*commands = append(*commands, DrawCommand{
			Op:          "line",
			Node:        n.name,
			Transform:   m[:],
			Points:      n.Paint.Points,
			Stroke:      n.Paint.Stroke,
			StrokeWidth: n.Paint.StrokeWidth,
			Opacity:     opacity,
			Composite:   n.Paint.Composite,
		})
	case KindImage:
		*commands = append(*commands, DrawCommand{
			Op:        "image",
			Node:      n.name,
			Transform: m[:],
			Width:     n.width,
			Height:    n.height,
			Image:     n.Paint.ImageName,
			Opacity:   opacity,
		})
	}

	for _, child := range n.children {
		compileNode(child, opacity, commands)
	}
}

// CompileHandles emits a square of size screen pixels at every anchor of an
// attached control, with the rotater last.
func CompileHandles(c *Control, size float64) []DrawCommand {
	if c == nil || c.target == nil || !c.visible || c.destroyed {
		return nil
	}
	order := []Anchor{
		AnchorTopLeft, AnchorTopCenter, AnchorTopRight,
		AnchorMiddleLeft, AnchorMiddleRight,
		AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight,
		AnchorRotater,
	}
	commands := make([]DrawCommand, 0, len(order))
	for _, a := range order {
		p, ok := c.handles[a]
		if !ok {
			continue
		}
		m := geometry.Translate(p.X-size/2, p.Y-size/2)
		commands = append(commands, DrawCommand{
			Op:          "rect",
			Node:        c.name + ":" + string(a),
			Transform:   m[:],
			Width:       size,
			Height:      size,
			Fill:        "white",
			Stroke:      "hsl(200deg 76% 59%)",
			StrokeWidth: 1,
			Opacity:     1,
		})
	}
	return commands
}

// CommandsToJSON serializes draw commands to JSON.
func CommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the topmost visible, listening node under an absolute
// point, or nil.
func HitTest(root *Node, p geometry.Coordinate) *Node {
	if root == nil || !root.visible || !root.listening || root.destroyed {
		return nil
	}
	// Children are on top in painter's order.
	for i := len(root.children) - 1; i >= 0; i-- {
		if hit := HitTest(root.children[i], p); hit != nil {
			return hit
		}
	}
	if root.kind == KindRect || root.kind == KindImage || root.kind == KindLine {
		local := root.AbsoluteTransform().Invert().Apply(p)
		if root.localExtent().Contains(local) {
			return root
		}
	}
	return nil
}
