package main

import "time"

type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Name       string `yaml:"name"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
}

type Config struct {
	Log          LogConfig `yaml:"log"`
	PollInterval int       `yaml:"poll_interval_seconds" validate:"min=1"` // 轮询间隔（秒）
	Cooldown     int       `yaml:"cooldown_seconds" validate:"min=0"`      // 最近访问后的冷却时间（秒）
	LogPath      string    `yaml:"log_path" validate:"required"`
	StopScript   string    `yaml:"stop_script_path" validate:"required"`
	StartScript  string    `yaml:"start_script_path" validate:"required"`
	Event        string    `yaml:"matched_event" validate:"required"`
	Category     string    `yaml:"matched_category" validate:"required"`
	Verbose      bool      `yaml:"verbose"`
	OnScanError  string    `yaml:"on_scan_error" validate:"oneof=skip bounce"`
	Daemon       bool      `yaml:"daemon"`
	WatchConfig  bool      `yaml:"watch_config"`
}

func (c Config) pollInterval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c Config) cooldown() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// AccessRecord 访问日志中的一行（制表符分隔）
type AccessRecord struct {
	Date     string
	Time     string
	Event    string
	Category string
}

type ScanStatus int

const (
	ScanFound ScanStatus = iota
	ScanNotFound
	ScanFailed
)

func (s ScanStatus) String() string {
	switch s {
	case ScanFound:
		return "found"
	case ScanNotFound:
		return "not_found"
	case ScanFailed:
		return "failed"
	}
	return "unknown"
}

// ScanResult 一次日志扫描的结果
// LastAccess 仅在 ScanFound 时有效，Err 仅在 ScanFailed 时有效
type ScanResult struct {
	Status     ScanStatus
	LastAccess time.Time
	Err        error
}

type Decision string

const (
	DecisionSkip        Decision = "skip"
	DecisionBounceNoLog Decision = "bounce_no_access"
	DecisionBounceStale Decision = "bounce_stale"
	DecisionScanSkip    Decision = "scan_failed_skip"
	DecisionScanBounce  Decision = "scan_failed_bounce"
)

func (d Decision) bounces() bool {
	return d == DecisionBounceNoLog || d == DecisionBounceStale || d == DecisionScanBounce
}
