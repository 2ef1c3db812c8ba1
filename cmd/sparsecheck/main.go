package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gpinchon/sparse-set/internal/config"
	"github.com/Gpinchon/sparse-set/internal/scenario"
	"github.com/Gpinchon/sparse-set/internal/scripting"
	"github.com/Gpinchon/sparse-set/internal/stress"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/sparsecheck.toml"
	if p := os.Getenv("SPARSECHECK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(version)

	failed := 0

	// 3. Stress pass
	if cfg.Stress.Enabled {
		printSection("Stress")
		reports, err := stress.Run(cfg.Stress, log)
		if err != nil {
			log.Error("stress check failed", zap.Error(err))
			printFail("stress", err)
			failed++
		}
		for i, r := range reports {
			printStat(fmt.Sprintf("round %d inserted", i), r.Inserted)
			printStat(fmt.Sprintf("round %d erased", i), r.Erased)
			printStat(fmt.Sprintf("round %d remaining", i), r.Remaining)
			printStat(fmt.Sprintf("round %d elapsed", i), r.Elapsed)
		}
		if err == nil {
			printOK(fmt.Sprintf("%d round(s) at capacity %d", len(reports), cfg.Stress.Capacity))
		}
		fmt.Println()
	}

	// 4. YAML scenarios
	if cfg.Scenarios.Enabled {
		printSection("Scenarios")
		table, err := scenario.LoadDir(cfg.Scenarios.Dir)
		if err != nil {
			return fmt.Errorf("load scenarios: %w", err)
		}
		printStat("loaded", table.Count())
		for _, r := range table.RunAll(log) {
			if r.Err != nil {
				printFail(r.Name, r.Err)
				failed++
				continue
			}
			printOK(fmt.Sprintf("%s \033[90m(%d steps)\033[0m", r.Name, r.Steps))
		}
		fmt.Println()
	}

	// 5. Lua scripts
	if cfg.Scripts.Enabled {
		printSection("Scripts")
		results, err := scripting.RunDir(cfg.Scripts.Dir, log)
		if err != nil {
			return fmt.Errorf("run scripts: %w", err)
		}
		printStat("loaded", len(results))
		for _, r := range results {
			name := filepath.Base(r.File)
			if r.Err != nil {
				printFail(name, r.Err)
				failed++
				continue
			}
			printOK(name)
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	printReady("all checks passed")
	log.Info("sparsecheck finished", zap.String("config", cfgPath))
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
