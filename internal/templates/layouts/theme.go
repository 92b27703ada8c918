package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/codr1/biolink/internal/render"
)

// ThemeStyle emits the theme's variables on :root. Declarations never carry
// "<", so the block cannot close the style element early.
func ThemeStyle(vars map[string]string) templ.Component {
	css := ":root{" + render.StyleDeclarations(vars) + "}"
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<style>"+css+"</style>")
		return err
	})
}

// ThemeScope wraps child in an element carrying the variables inline, so a
// preview can be themed without touching the rest of the document.
func ThemeScope(vars map[string]string, child templ.Component) templ.Component {
	style := templ.EscapeString(render.StyleDeclarations(vars))
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="theme-scope" style="`+style+`">`); err != nil {
			return err
		}
		if child != nil {
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>")
		return err
	})
}
