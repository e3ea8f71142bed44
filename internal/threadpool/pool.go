package threadpool

import "sync"

// Task is a deferred unit of work. Ownership transfers to the pool at
// enqueue time; the pool runs it exactly once on one worker.
type Task func()

type state int

const (
	stateRunning state = iota
	stateStopping
	stateStopped
)

// Pool dispatches queued tasks to a fixed set of workers. The worker count
// never changes for the pool's lifetime; idle workers stay alive rather than
// being torn down.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond
	wg   sync.WaitGroup

	queue  []Task
	active int
	st     state

	// Fired once at the Running to Stopping transition. Installed only by
	// tests, via export_test.go.
	waitCallback func()
}

// New starts a pool with count workers. count must be at least 1.
func New(count int) *Pool {
	if count < 1 {
		panic("threadpool: worker count must be at least 1")
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(count)
	for i := 0; i < count; i++ {
		go p.work()
	}
	return p
}

// Enqueue appends a task to the queue and wakes a worker. It never blocks
// the caller. Enqueueing is accepted while the pool is Running or Stopping;
// a task enqueued before the pool reaches Stopped is guaranteed to run.
// Enqueueing on a Stopped pool panics.
func (p *Pool) Enqueue(task Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.st == stateStopped {
		panic("threadpool: Enqueue called on a stopped pool")
	}
	p.queue = append(p.queue, task)
	p.cond.Broadcast()
}

// Wait transitions the pool to Stopping, blocks until the queue drains and
// every worker is idle, then stops the pool and joins all workers. It is not
// re-entrant from multiple goroutines.
func (p *Pool) Wait() {
	p.mu.Lock()
	var callback func()
	if p.st == stateRunning {
		p.st = stateStopping
		callback = p.waitCallback
		p.waitCallback = nil
	}
	p.mu.Unlock()

	if callback != nil {
		callback()
	}

	p.mu.Lock()
	for len(p.queue) > 0 || p.active > 0 {
		p.cond.Wait()
	}
	p.st = stateStopped
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	p.mu.Lock()
	for {
		for len(p.queue) == 0 && p.st != stateStopped {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			// Stopped and drained.
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()

		task()

		p.mu.Lock()
		p.active--
		p.cond.Broadcast()
	}
}
