package main

import (
	"os"
	"os/exec"
	"time"
)

type commandRunner interface {
	Run(path string) error
}

// execRunner 同步执行脚本，不带参数，继承当前进程的标准输出
type execRunner struct{}

func (execRunner) Run(path string) error {
	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Bouncer 定期检查访问日志，在服务器空闲时重启它以刷新认证令牌
type Bouncer struct {
	cfg    Config
	runner commandRunner
	now    func() time.Time
}

func NewBouncer(cfg Config) *Bouncer {
	return &Bouncer{
		cfg:    cfg,
		runner: execRunner{},
		now:    time.Now,
	}
}

// decide 根据扫描结果决定是否重启，同时返回距上次访问的时间。
// 日志时间晚于当前时间时视为刚刚访问过。
func decide(cfg Config, res ScanResult, now time.Time) (Decision, time.Duration) {
	switch res.Status {
	case ScanFailed:
		if cfg.OnScanError == scanErrorBounce {
			return DecisionScanBounce, 0
		}
		return DecisionScanSkip, 0
	case ScanNotFound:
		return DecisionBounceNoLog, 0
	}

	elapsed := now.Sub(res.LastAccess)
	if elapsed < 0 {
		return DecisionSkip, 0
	}
	if elapsed > cfg.cooldown() {
		return DecisionBounceStale, elapsed
	}
	return DecisionSkip, elapsed
}

// runOnce 执行一次完整的检查，需要时重启服务器
func (b *Bouncer) runOnce() Decision {
	res := scanLastAccess(b.cfg)
	d, elapsed := decide(b.cfg, res, b.now())
	secs := int64(elapsed / time.Second)

	switch d {
	case DecisionBounceNoLog:
		logger.Info("no access logs found - bouncing server")
	case DecisionBounceStale:
		logger.Infof("server not accessed for %d seconds - bouncing server", secs)
	case DecisionSkip:
		logger.Infof("server accessed %d seconds ago - skipping bounce", secs)
	case DecisionScanBounce:
		logger.Errorw("access log unreadable - bouncing server", "error", res.Err)
	case DecisionScanSkip:
		logger.Errorw("access log unreadable - skipping bounce", "error", res.Err)
	}

	if d.bounces() {
		b.bounce()
	}
	return d
}

// bounce 先停止再启动，脚本的退出状态只记录不处理
func (b *Bouncer) bounce() {
	b.call(b.cfg.StopScript)
	b.call(b.cfg.StartScript)
}

func (b *Bouncer) call(path string) {
	logger.Infof("- calling %s", path)
	if err := b.runner.Run(path); err != nil {
		logger.Warnw("script failed", "path", path, "error", err)
	}
}

// Run 循环检查直到收到退出信号。
// reloads 中的新配置只在两次检查之间生效，可以为 nil。
func (b *Bouncer) Run(done <-chan os.Signal, reloads <-chan Config) {
	for {
		b.runOnce()

		timer := time.NewTimer(b.cfg.pollInterval())
		select {
		case <-timer.C:
		case sig := <-done:
			timer.Stop()
			logger.Infof("received signal %v, exiting", sig)
			return
		}

		select {
		case cfg := <-reloads:
			b.cfg = cfg
			logger.Infow("config reloaded",
				"poll_interval_seconds", cfg.PollInterval,
				"cooldown_seconds", cfg.Cooldown,
				"log_path", cfg.LogPath,
			)
		default:
		}
	}
}
