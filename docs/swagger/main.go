//go:build swagger
// +build swagger

// This file is used solely for OpenAPI spec generation via `swag init`.

// Package docs provides OpenAPI/Swagger documentation for the fluxstate demo API.
package docs

// @title Fluxstate Demo API
// @version 1.0
// @description Example REST surface backed by the fluxstate store, middleware pipeline, and api engine.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /

// @schemes http
