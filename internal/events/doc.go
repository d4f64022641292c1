// Package events carries service request lifecycle events from the service
// layer to whoever reacts to them, currently the notification task factory.
// The service emits without knowing the handlers, so a failing or slow
// notification path never reaches the HTTP response.
package events
