package schemas

import "embed"

// SchemasFS - JSON-схемы событий брокера и тел запросов
//
//go:embed events requests
var SchemasFS embed.FS
