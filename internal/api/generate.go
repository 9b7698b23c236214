// Package api holds the types and chi routing generated from api/openapi.yaml.
package api

//go:generate go tool oapi-codegen -config config.yaml ../../api/openapi.yaml
