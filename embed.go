package blogkit

import "embed"

// EmbeddedAssets contains the browser scripts shipped with blogkit, served
// under /public/blogkit/: editor.js (admin editor), views.js (view counter),
// search.js (search on exported sites) and subscribe.js (newsletter form).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
