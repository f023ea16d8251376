// Package queue persists pipeline run requests in SQLite.
//
// Every trigger of a project run becomes one row in run_items. The Store
// refuses a second pending or running item for the same project, hands
// pending items to the workflow manager in FIFO order and records the
// outcome (final stage, error message, failed languages) once the run ends.
//
// The database is transient bookkeeping. The durable record of a project's
// progress is the pipeline.json file in its directory; ResetRunning lets a
// restarted daemon requeue runs interrupted by a crash. Schema changes bump
// schemaVersion in schema.go and require clearing the database.
package queue
