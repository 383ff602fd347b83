// evaluate plays an agent against every opponent in the pool and rewrites
// the opponent-statistics and loss-replay files read by training.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lategardener/morpion-RL/automatic"
	"github.com/lategardener/morpion-RL/config"
)

var (
	GitVersion string
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	if wd, err := os.Getwd(); err == nil {
		cfg.AdjustRelativePaths(wd)
	}
	log.Info().Str("version", GitVersion).Msgf("Loaded config: %v", cfg.SanitizedSettings())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent := cfg.GetString(config.ConfigAgentPolicy)
	ev := automatic.NewEvaluator(cfg, agent, automatic.AgentFromConfig(cfg, agent))
	start := time.Now()
	report, err := ev.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation-failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Int64("games", automatic.GamesPlayed.Value()).
		Msg("evaluation-done")

	if err := report.Fprint(os.Stdout); err != nil {
		log.Err(err).Msg("printing-report")
	}
	if path := cfg.GetString(config.ConfigReportPath); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("creating-report-file")
		}
		defer f.Close()
		if err := report.WriteYAML(f); err != nil {
			log.Fatal().Err(err).Msg("writing-report-file")
		}
		log.Info().Str("path", path).Msg("wrote-report")
	}
}
