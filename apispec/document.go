package apispec

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/siegeai/siegeschema/schema"
)

const openAPIVersion = "3.0.3"

// Document wraps named schemas into an OpenAPI document under components.schemas.
func Document(title, version string, schemas map[string]schema.Schema) *openapi3.T {
	ss := make(openapi3.Schemas, len(schemas))
	for name, s := range schemas {
		ss[name] = ToOpenAPI(s).NewRef()
	}

	return &openapi3.T{
		OpenAPI: openAPIVersion,
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: ss,
		},
	}
}
