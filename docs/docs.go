// Package docs registers a hand-written OpenAPI stub with swaggo/swag at
// init time, in the shape `swag init` emits. It carries the title, version,
// description and base path from cmd/api/main.go's annotations; its paths
// object is empty, so the @Router annotations in internal/httpapi are not
// reflected here.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trace Insights API",
        "description": "Distributed-tracing ingestion and test-result analytics service.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Trace Insights API",
	Description:      "Distributed-tracing ingestion and test-result analytics service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
