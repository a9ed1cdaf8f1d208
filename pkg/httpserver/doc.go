// Package httpserver runs the API's http.Server until its context is
// cancelled and provides liveness and readiness handlers.
package httpserver
