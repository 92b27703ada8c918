// Package blocks holds the built-in page blocks a link-in-bio page is made
// of. Every block styles itself through theme variables only.
package blocks

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/biolink/internal/render"
)

const (
	TypeProfileHeader = "ProfileHeader"
	TypeLinkButton    = "LinkButton"
	TypeTextBlock     = "TextBlock"
	TypeSpacer        = "Spacer"
)

var spacerHeights = map[string]string{
	"sm": "0.5rem",
	"md": "1rem",
	"lg": "2rem",
	"xl": "3rem",
}

// Register adds the built-in blocks to registry.
func Register(registry *render.Registry) {
	registry.Register(TypeProfileHeader, render.BlockRendererFunc(renderProfileHeader))
	registry.Register(TypeLinkButton, render.BlockRendererFunc(renderLinkButton))
	registry.Register(TypeTextBlock, render.BlockRendererFunc(renderTextBlock))
	registry.Register(TypeSpacer, render.BlockRendererFunc(renderSpacer))
}

// NewRegistry returns a registry with the built-in blocks.
func NewRegistry() *render.Registry {
	registry := render.NewRegistry()
	Register(registry)
	return registry
}

func renderProfileHeader(props map[string]any, _ map[string]string) templ.Component {
	return profileHeader(stringProp(props, "name"), stringProp(props, "bio"))
}

func renderLinkButton(props map[string]any, _ map[string]string) templ.Component {
	newTab, _ := props["openInNewTab"].(bool)
	return linkButton(stringProp(props, "title"), safeURL(stringProp(props, "url")), newTab)
}

func renderTextBlock(props map[string]any, _ map[string]string) templ.Component {
	align := stringProp(props, "alignment")
	switch align {
	case "left", "center", "right":
	default:
		align = "left"
	}
	return textBlock(stringProp(props, "content"), align)
}

func renderSpacer(props map[string]any, _ map[string]string) templ.Component {
	height, ok := spacerHeights[stringProp(props, "height")]
	if !ok {
		height = spacerHeights["md"]
	}
	return spacer(height)
}

func stringProp(props map[string]any, key string) string {
	value, ok := props[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// safeURL keeps http, https and mailto links and replaces anything else.
func safeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto":
		return parsed.String()
	default:
		return "#"
	}
}
