package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job 一次定时任务，返回的错误只记录不中断调度
type Job func(ctx context.Context) error

// Scheduler 任务调度器
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *slog.Logger
}

// NewScheduler 创建任务调度器，spec带秒字段（如 "0 30 18 * * 1-5"）
func NewScheduler(ctx context.Context, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		logger: logger,
	}
}

// AddJob 注册任务，上一次未完成时跳过本次触发
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, job)
	})
	if err != nil {
		return fmt.Errorf("注册任务 %s 失败: %w", name, err)
	}
	s.logger.Info("已注册定时任务", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.Info("开始执行定时任务", "job", name)
	if err := job(s.ctx); err != nil {
		s.logger.Error("定时任务执行失败", "job", name, "error", err)
		return
	}
	s.logger.Info("定时任务执行完成", "job", name)
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
