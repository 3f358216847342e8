// Package openapi 埋め込みのOpenAPI仕様を提供
package openapi

import _ "embed"

// Spec OpenAPI仕様（YAML形式）
//
//go:embed openapi.yaml
var Spec []byte
