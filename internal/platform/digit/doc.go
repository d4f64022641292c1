// Package digit contains HTTP clients for the DIGIT platform services a
// service request depends on: id generation, boundaries, file store,
// workflow, notification and accounts.
//
// Every client forwards the caller's identity headers (see Headers) so the
// downstream service sees the same tenant, client and correlation ids as the
// inbound request.
package digit
