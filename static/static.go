// Package static embeds the stylesheet and scripts served under /static/.
package static

import "embed"

//go:embed app.css js
var FS embed.FS
