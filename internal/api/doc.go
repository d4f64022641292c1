// Package api exposes the citizen service request endpoints and the
// library-check diagnostics over HTTP. Handlers decode and validate input,
// call the service layer and translate errors into the structured error
// envelope.
package api
