package render

import (
	"github.com/codr1/biolink/internal/models"
)

// Preview is an editor's live-preview session. Every read recomputes from
// the schema defaults and the working tokens, so the applied result depends
// only on the current working map and not on the edits that produced it.
// The zero value is an empty preview. A Preview is not safe for concurrent
// use.
type Preview struct {
	working map[string]string
}

func NewPreview(tokens models.Tokens) *Preview {
	p := &Preview{}
	p.Replace(tokens)
	return p
}

// Set records a working value. A blank value keeps the key but resolves to
// the default.
func (p *Preview) Set(key models.TokenKey, value string) {
	if p.working == nil {
		p.working = make(map[string]string)
	}
	p.working[string(key)] = value
}

func (p *Preview) Unset(key models.TokenKey) {
	delete(p.working, string(key))
}

// Replace swaps the whole working map, e.g. when another theme is selected.
func (p *Preview) Replace(tokens models.Tokens) {
	p.working = tokens.Map()
}

// Tokens returns a copy of the working map.
func (p *Preview) Tokens() models.Tokens {
	return models.ParseTokens(p.working)
}

func (p *Preview) Resolved() map[models.TokenKey]string {
	return models.ResolveTokens(p.Tokens())
}

func (p *Preview) StyleVars() map[string]string {
	return ToStyleVars(p.Resolved())
}

func (p *Preview) Declarations() string {
	return StyleDeclarations(p.StyleVars())
}
