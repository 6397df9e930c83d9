// =============================================================================
// Churninator 主入口
// =============================================================================
// 动作解析、归一化、数据集预处理与点击评测的命令行入口
//
// 使用方法:
//
//	churninator parse "pyautogui.click(0.1, 0.2)"        # 解析为 JSON
//	churninator normalize --width 1920 --height 1080 -   # 从 stdin 归一化
//	churninator preprocess --in raw.jsonl --out out.jsonl
//	churninator eval --in predictions.jsonl --stage 2
//	churninator logs --run <run_id> --follow             # 订阅运行日志
//	churninator version                                  # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/churninator/churninator/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 退出码
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("churninator", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "Path to config file")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	args = global.Args()

	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	cmd := &command{
		name:       args[0],
		args:       args[1:],
		configPath: *configPath,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}

	switch cmd.name {
	case "parse":
		return runParse(ctx, cmd)
	case "normalize":
		return runNormalize(ctx, cmd)
	case "preprocess":
		return runPreprocess(ctx, cmd)
	case "eval":
		return runEval(ctx, cmd)
	case "logs":
		return runLogs(ctx, cmd)
	case "version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd.name)
		printUsage(stderr)
		return exitUsage
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Churninator %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Churninator - GUI agent action tooling

Usage:
  churninator [--config <path>] <command> [options]

Commands:
  parse       Parse call-syntax actions and print them as JSON
  normalize   Rewrite actions onto the canonical action space
  preprocess  Convert a raw trajectory dataset to canonical actions
  eval        Score click predictions against ground-truth boxes
  logs        Print (and follow) the run log of an agent task
  version     Show version information
  help        Show this help message

Options for 'parse':
  --free-text        Scan model prose for calls
  --code-block       Read calls from the <code> block only

Options for 'normalize':
  --width <px>       Target resolution width
  --height <px>      Target resolution height
  --resolution <WxH> Target resolution, e.g. 1280x720

Options for 'preprocess':
  --in <path>        Raw JSONL input
  --out <path>       Processed JSONL output
  --stage-dir <dir>  Image path prefix
  --workers <n>      Concurrent workers

Options for 'eval':
  --in <path>        Samples JSONL
  --stage <1|2>      Completion format
  --normalize        Normalize predictions before scoring
  --results          Include per-sample results in the report

Options for 'logs':
  --run <id>         Run ID
  --follow           Keep printing until the run ends

Text arguments default to stdin when omitted or given as '-'.

Examples:
  churninator parse "pyautogui.click(0.1, 0.2)"
  echo "pyautogui.scroll(-0.5)" | churninator normalize
  churninator --config churninator.yaml preprocess --in raw.jsonl --out train.jsonl
  churninator eval --in predictions.jsonl --stage 2
  churninator logs --run 1b9d6bcd --follow`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	// 构建 logger
	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
