package worker

import (
	"context"
	"meal_coupon/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task 一个可并发执行的任务
type Task func(ctx context.Context) error

// WorkerPool 有界并发执行器：最多 WorkerNum 个任务同时运行，
// 全部完成后才返回；首个错误会取消其余尚未开始的任务。
type WorkerPool struct {
	WorkerNum int
}

func NewWorkerPool(workerNum int) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	return &WorkerPool{WorkerNum: workerNum}
}

// Run 执行全部任务并返回第一个错误
func (p *WorkerPool) Run(ctx context.Context, tasks []Task) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.WorkerNum)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := task(gctx); err != nil {
				logger.L().Debug("worker task failed", zap.Int("task", i), zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
