// Package threadpool provides a fixed-size pool of persistent workers with a
// FIFO task queue and a three-state lifecycle: Running, Stopping, Stopped.
//
// Tasks may be enqueued while the pool is Running or Stopping; every task
// accepted before the pool reaches Stopped runs exactly once. Enqueueing on a
// Stopped pool is a caller lifetime bug and panics.
package threadpool
