package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

const (
	scanErrorSkip   = "skip"
	scanErrorBounce = "bounce"
)

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			Name:       "wowza-bouncer.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		PollInterval: 5 * 60,
		Cooldown:     30 * 60,
		LogPath:      "wowzastreamingengine_access.log",
		StopScript:   "/usr/local/WowzaStreamingEngine/bin/shutdown.sh",
		StartScript:  "/usr/local/WowzaStreamingEngine/bin/startup.sh",
		Event:        "connect",
		Category:     "session",
		OnScanError:  scanErrorSkip,
	}
}

// cliOptions 命令行参数，只有显式给出的参数才会覆盖配置文件
type cliOptions struct {
	ConfigPath string
	Once       bool

	values Config
	set    map[string]bool
}

func parseFlags(args []string) (cliOptions, error) {
	opts := cliOptions{set: map[string]bool{}}

	flags := flag.NewFlagSet("wowza-bouncer", flag.ContinueOnError)
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to the YAML configuration file (default: ./config.yaml if present)")
	flags.BoolVar(&opts.Once, "once", false, "Run a single check and exit")
	flags.IntVar(&opts.values.PollInterval, "poll", 0, "Seconds to sleep between checks")
	flags.IntVar(&opts.values.Cooldown, "cooldown", 0, "Skip the bounce if the server was accessed within this many seconds")
	flags.StringVar(&opts.values.LogPath, "log", "", "Path to the access log")
	flags.StringVar(&opts.values.StopScript, "stop", "", "Path to the shutdown script")
	flags.StringVar(&opts.values.StartScript, "start", "", "Path to the startup script")
	flags.StringVar(&opts.values.Event, "event", "", "Event name counted as an access")
	flags.StringVar(&opts.values.Category, "category", "", "Category name counted as an access")
	flags.StringVar(&opts.values.OnScanError, "on-scan-error", "", "What to do when the access log cannot be read: skip or bounce")
	flags.BoolVar(&opts.values.Verbose, "v", false, "Print decisions to stdout")
	flags.BoolVar(&opts.values.Daemon, "daemon", false, "Detach and run in the background")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	flags.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	return opts, nil
}

func (o cliOptions) apply(cfg Config) Config {
	if o.set["poll"] {
		cfg.PollInterval = o.values.PollInterval
	}
	if o.set["cooldown"] {
		cfg.Cooldown = o.values.Cooldown
	}
	if o.set["log"] {
		cfg.LogPath = o.values.LogPath
	}
	if o.set["stop"] {
		cfg.StopScript = o.values.StopScript
	}
	if o.set["start"] {
		cfg.StartScript = o.values.StartScript
	}
	if o.set["event"] {
		cfg.Event = o.values.Event
	}
	if o.set["category"] {
		cfg.Category = o.values.Category
	}
	if o.set["on-scan-error"] {
		cfg.OnScanError = o.values.OnScanError
	}
	if o.set["v"] {
		cfg.Verbose = o.values.Verbose
	}
	if o.set["daemon"] {
		cfg.Daemon = o.values.Daemon
	}
	return cfg
}

// configFile 返回要读取的配置文件路径，以及该文件是否必须存在
func (o cliOptions) configFile() (string, bool) {
	if o.ConfigPath != "" {
		return o.ConfigPath, true
	}
	return defaultConfigPath, false
}

// 加载配置：默认值 -> 配置文件
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: field %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// resolveConfig 默认值 -> 配置文件 -> 命令行参数，最后校验
func resolveConfig(opts cliOptions) (Config, error) {
	path, required := opts.configFile()
	cfg, err := loadConfig(path, required)
	if err != nil {
		return Config{}, err
	}
	cfg = opts.apply(cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 监听配置文件变化，每次变化生成一份新的配置发送到 out。
// out 中只保留最新的一份，无效的配置会被丢弃。
func watchConfig(opts cliOptions, out chan Config, stop <-chan struct{}) error {
	path, _ := opts.configFile()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) ||
					!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := loadConfig(path, true)
				if err == nil {
					cfg = opts.apply(cfg)
					err = validateConfig(cfg)
				}
				if err != nil {
					logger.Errorw("config reload rejected", "path", path, "error", err)
					continue
				}
				select {
				case <-out:
				default:
				}
				out <- cfg
				logger.Infow("config change detected", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("config watcher error", "error", err)
			case <-stop:
				return
			}
		}
	}()
	return nil
}
