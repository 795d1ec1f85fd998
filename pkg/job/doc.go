// Package job runs the engine's background work on River.
//
// Two kinds of work go through here: notification fan-out dispatched
// asynchronously when the embedder opts out of in-request sending, and
// the periodic counter-reconciliation schedule that re-runs recounts
// to repair drift between mutation events.
//
// Tasks are registered by name with typed JSON payloads; a single
// River worker dispatches to the registry. Schedules are standard
// 5-field cron expressions.
package job
