// Package engine runs database work off the caller's goroutine.
//
// A Pool owns one store.Conn per database path. Each path has a FIFO job
// queue drained by at most one goroutine at a time, so jobs on one path
// run strictly in submission order and a read submitted after a write
// observes the write. Jobs on different paths run concurrently, bounded by
// PoolOptions.MaxWorkers.
//
// Lifecycle of a path worker:
//
//	Idle --Submit--> Busy (drain goroutine started)
//	Busy --queue empty--> Idle (drain goroutine exits)
//	any  --ClosePath--> Closing (new jobs rejected, queue drained, conn closed)
//
// Submit never blocks. It returns a Handle that resolves exactly once with
// the job's result, its error, or a cancellation. A failing or panicking
// job resolves its own handle and never stops the queue.
//
// The typed adapters (InsertAsync, TableAsync, ...) hold no mapping logic;
// each one submits the matching store operation.
package engine
