package threadpool

// SetWaitCallbackForTest installs a hook fired exactly once when Wait moves
// the pool from Running to Stopping, letting tests pin down shutdown races.
func SetWaitCallbackForTest(p *Pool, callback func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitCallback = callback
}
