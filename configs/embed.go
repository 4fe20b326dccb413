// Package configs provides the embedded configuration template.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. `storyseek config init` writes it to disk as a
// starting point; internal/config holds the actual defaults and the
// STORYSEEK_* environment overrides win over any file.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `storyseek config init`.
//
//go:embed storyseek.example.yaml
var ConfigTemplate string
