package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/ember/engine/containers"
	"github.com/spaghettifunk/ember/engine/core"
)

// JobTask is one unit of background work. Run executes on a worker
// goroutine; OnComplete or OnFailure follow on the same goroutine.
type JobTask struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

// JobSystem is a fixed pool of workers draining a bounded ring queue.
// Jobs must not touch GPU objects; hand results back to the render thread.
type JobSystem struct {
	numWorkers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *containers.RingQueue[JobTask]
	closed  bool
	pending int
	idle    *sync.Cond

	wg sync.WaitGroup
}

func NewJobSystem(numWorkers int, queueSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, core.ErrNoWorkers
	}
	if queueSize <= 0 {
		return nil, fmt.Errorf("job queue size must be positive, got %d", queueSize)
	}
	js := &JobSystem{
		numWorkers: numWorkers,
		queue:      containers.NewRingQueue[JobTask](queueSize),
	}
	js.cond = sync.NewCond(&js.mu)
	js.idle = sync.NewCond(&js.mu)
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				job, ok := js.next()
				if !ok {
					return
				}
				js.run(job)
				js.mu.Lock()
				js.pending--
				if js.pending == 0 {
					js.idle.Broadcast()
				}
				js.mu.Unlock()
			}
		}()
	}
}

// next blocks until a job is available or the system shuts down.
func (js *JobSystem) next() (JobTask, bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	for js.queue.IsEmpty() && !js.closed {
		js.cond.Wait()
	}
	if js.queue.IsEmpty() {
		return JobTask{}, false
	}
	job, _ := js.queue.Dequeue()
	return job, true
}

func (js *JobSystem) run(job JobTask) {
	if err := job.Run(); err != nil {
		core.LogError("job %s failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

// Submit queues a job without blocking. It returns core.ErrQueueFull when
// the queue is at capacity.
func (js *JobSystem) Submit(job JobTask) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return fmt.Errorf("job %s: job system is shut down", job.Name)
	}
	if err := js.queue.Enqueue(job); err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	js.pending++
	js.cond.Signal()
	return nil
}

// Wait blocks until every submitted job has finished.
func (js *JobSystem) Wait() {
	js.mu.Lock()
	defer js.mu.Unlock()
	for js.pending > 0 {
		js.idle.Wait()
	}
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}

/**
 * @brief Shuts the job system down. Queued jobs still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.cond.Broadcast()
	js.mu.Unlock()
	js.wg.Wait()
	return nil
}
