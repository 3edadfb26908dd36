// Package locales provides the embedded translations (en, pt-BR) used by the status page.
package locales

import "embed"

//go:embed en.yaml
//go:embed pt-BR.yaml

// Content is an embedded file system containing localized resource files.
var Content embed.FS
