// Package scheduler is a cooperative, non-preemptive tick scheduler for
// single-threaded hosts.
//
// A Registry owns a fixed pool of task slots, a rotation cursor, and a tick
// source. Tasks are either Recurring (re-armed after each run) or SingleShot
// (retired after one run). Nothing allocates after NewPool.
//
// # Running tasks
//
// The engine is split into three phases so a host can interleave other duties
// between them:
//
//	h, ok := reg.SelectDue() // Active -> Ready, cursor moves past h
//	reg.Execute(h)           // Ready -> Running -> Clean, callback runs here
//	reg.Requeue(h)           // Clean -> Active, or retired if SingleShot
//
// RunNext performs the three phases back to back for hosts that don't need
// the split.
//
// A task is due when the wraparound-safe distance between now and its
// LastTimestamp is at least its Period. A new task's LastTimestamp is its
// creation tick, so it first becomes due one full period after creation.
// SelectDue starts at the cursor and scans the ring at most once; a matched
// task moves the cursor to its successor, which gives round-robin fairness
// among tasks that are due at the same tick.
//
// # Callbacks
//
// Exactly one callback runs at a time, on the caller's goroutine. A callback
// may mutate other tasks in the same registry. It may also remove or
// deactivate itself: the slot release (or the deactivation) is deferred until
// the task's Requeue phase. Calling SelectDue or RunNext from inside a callback
// returns no task.
//
// # Failures
//
// Nothing in the engine is fatal. Pool exhaustion is returned as
// ErrPoolExhausted with a zero Handle, lookup misses as ok=false, and phase
// calls on a task in the wrong state are ignored.
//
// A Registry is not safe for concurrent use.
package scheduler
