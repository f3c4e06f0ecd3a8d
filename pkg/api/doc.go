// Package api exposes the configuration store operations over HTTP. It is
// thin glue: handlers extract the bearer token and typed parameters, invoke
// the service pipeline, and map its typed errors to status codes. No
// authorization or storage logic lives here.
package api
