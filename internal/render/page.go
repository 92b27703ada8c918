package render

import (
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
)

// Node is one block of page content as stored by the page editor.
type Node struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// Page is the stored page content: page-level props plus ordered blocks.
type Page struct {
	Root    Node   `json:"root"`
	Content []Node `json:"content"`
}

// BlockRenderer draws one block type. Implementations must be pure: the same
// props and vars always produce the same markup.
type BlockRenderer interface {
	Render(props map[string]any, vars map[string]string) templ.Component
}

// BlockRendererFunc adapts a function to BlockRenderer.
type BlockRendererFunc func(props map[string]any, vars map[string]string) templ.Component

func (f BlockRendererFunc) Render(props map[string]any, vars map[string]string) templ.Component {
	return f(props, vars)
}

// Registry maps block types to their renderers.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]BlockRenderer
}

func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]BlockRenderer)}
}

func (r *Registry) Register(blockType string, renderer BlockRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[blockType] = renderer
}

func (r *Registry) Lookup(blockType string) (BlockRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[blockType]
	return renderer, ok
}

// Len returns the number of registered block types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.renderers)
}

// RenderPage draws the root node and then each content block in order.
// Nodes of an unregistered type render nothing.
func (r *Registry) RenderPage(page Page, vars map[string]string) templ.Component {
	nodes := make([]Node, 0, len(page.Content)+1)
	if page.Root.Type != "" {
		nodes = append(nodes, page.Root)
	}
	nodes = append(nodes, page.Content...)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, node := range nodes {
			renderer, ok := r.Lookup(node.Type)
			if !ok {
				continue
			}
			if err := renderer.Render(node.Props, vars).Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
