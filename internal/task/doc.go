// Package task runs citizen notifications in the background. Work is
// recorded in a dispatch log, queued in memory and executed by a small worker
// pool, so HTTP handlers never wait on the notification service.
package task
