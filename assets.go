// Package console provides the embedded templates of the adify console.
package console

import "embed"

// TemplateFS holds web/templates. In dev mode templates are read from disk instead.
//
//go:embed all:web/templates
var TemplateFS embed.FS
