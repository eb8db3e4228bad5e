// Package web embeds the map page served at the site root.
package web

import "embed"

// Assets holds index.html, style.css, script.js and manifest.json.
//
//go:embed index.html style.css script.js manifest.json
var Assets embed.FS
