//go:build embed_model

package provider

import "embed"

// embeddedModelFS holds models/<model dir name>/ for the default model.
//
//go:embed all:models
var embeddedModelFS embed.FS

const hasEmbeddedModel = true
