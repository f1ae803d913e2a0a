// Package webapp provides the embedded static files of the web terminal.
package webapp

import "embed"

//go:embed index.html terminal.css terminal.js
var Assets embed.FS
