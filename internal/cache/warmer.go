package cache

import (
	"log"
	"sync"
	"time"
)

// WarmupJob recomputes one cache entry. Loader runs outside any request, so
// it must carry everything it needs (db handle, user identity) in its
// closure.
type WarmupJob struct {
	Key    string
	TTL    time.Duration
	Loader func() (interface{}, error)
}

// CacheWarmer refreshes registered entries on an interval through a small
// worker pool, so hot listings are already populated when requests arrive.
type CacheWarmer struct {
	cache    Cache
	interval time.Duration
	workers  int

	jobs   map[string]WarmupJob
	jobCh  chan WarmupJob
	stopCh chan struct{}
	wg     sync.WaitGroup

	running bool
	mu      sync.RWMutex

	warmed int64
	failed int64
}

func NewCacheWarmer(c Cache, interval time.Duration, workers int) *CacheWarmer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if workers <= 0 {
		workers = 3
	}
	return &CacheWarmer{
		cache:    c,
		interval: interval,
		workers:  workers,
		jobs:     make(map[string]WarmupJob),
		jobCh:    make(chan WarmupJob, workers*2),
		stopCh:   make(chan struct{}),
	}
}

// RegisterJob adds or replaces a warmup job keyed by its cache key. The job
// is picked up on the next warming cycle.
func (w *CacheWarmer) RegisterJob(job WarmupJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.jobs[job.Key] = job
}

func (w *CacheWarmer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}

	w.wg.Add(1)
	go w.loop()

	log.Printf("🔥 Cache warmer started (%d workers, interval %v)", w.workers, w.interval)
}

func (w *CacheWarmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	log.Println("🛑 Cache warmer stopped")
}

// WarmNow enqueues every registered job immediately. Jobs that do not fit
// the queue are skipped; the next cycle retries them.
func (w *CacheWarmer) WarmNow() int {
	w.mu.RLock()
	jobs := make([]WarmupJob, 0, len(w.jobs))
	for _, job := range w.jobs {
		jobs = append(jobs, job)
	}
	w.mu.RUnlock()

	enqueued := 0
	for _, job := range jobs {
		select {
		case w.jobCh <- job:
			enqueued++
		default:
		}
	}
	return enqueued
}

func (w *CacheWarmer) GetStats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return map[string]interface{}{
		"running":         w.running,
		"registered_jobs": len(w.jobs),
		"warmed":          w.warmed,
		"failed":          w.failed,
	}
}

func (w *CacheWarmer) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.WarmNow()
		case <-w.stopCh:
			return
		}
	}
}

func (w *CacheWarmer) worker() {
	defer w.wg.Done()

	for {
		select {
		case job := <-w.jobCh:
			value, err := job.Loader()
			w.mu.Lock()
			if err != nil {
				w.failed++
				w.mu.Unlock()
				continue
			}
			w.warmed++
			w.mu.Unlock()
			if err := w.cache.Set(job.Key, value, job.TTL); err != nil {
				log.Printf("⚠️ Cache warmup set failed for %s: %v", job.Key, err)
			}
		case <-w.stopCh:
			return
		}
	}
}
