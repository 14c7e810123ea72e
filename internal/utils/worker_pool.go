package utils

import (
	"log"
	"sync"
)

// TaskPool 固定大小的协程池，队列满时 Submit 阻塞
// 用于把 CPU/DB 密集的请求处理收敛到固定并发度
type TaskPool struct {
	tasks   chan func()
	workers int
	stop    chan struct{}
	wg      sync.WaitGroup
}

var (
	GlobalTaskPool *TaskPool
	poolOnce       sync.Once
)

// InitGlobalTaskPool 按配置初始化全局协程池，只生效一次
func InitGlobalTaskPool(workers, queueSize int) {
	poolOnce.Do(func() {
		GlobalTaskPool = NewTaskPool(workers, queueSize)
		GlobalTaskPool.Start()
	})
}

// NewTaskPool 创建协程池，workers 为并发度，queueSize 为排队上限
func NewTaskPool(workers, queueSize int) *TaskPool {
	return &TaskPool{
		tasks:   make(chan func(), queueSize),
		workers: workers,
		stop:    make(chan struct{}),
	}
}

// Start 启动全部 worker
func (p *TaskPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	log.Printf("TaskPool 已启动，共 %d 个 worker", p.workers)
}

func (p *TaskPool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.execute(id, task)
		case <-p.stop:
			return
		}
	}
}

// execute 单独包一层，任务 panic 不能带走 worker
func (p *TaskPool) execute(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker %d 任务 panic: %v", id, r)
		}
	}()
	task()
}

// Submit 提交任务，队列满时阻塞直到有空位
func (p *TaskPool) Submit(task func()) {
	p.tasks <- task
}

// Stop 停止接收新 worker 循环并等待存量 worker 退出
func (p *TaskPool) Stop() {
	close(p.stop)
	p.wg.Wait()
}
