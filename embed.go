package linkpress

import "embed"

// EmbeddedAssets contains static assets shipped with the app:
// linkpress.js and linkpress.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
