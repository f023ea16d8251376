// Package workflow runs queued pipeline runs in the background.
//
// The Manager polls the run queue and hands pending items to the pipeline
// runner on a bounded goroutine pool, detached from the request that
// enqueued them. Runs interrupted by shutdown stay "running" in the queue and
// are returned to pending on the next Start, at which point the pipeline
// resumes from the first incomplete stage.
package workflow
