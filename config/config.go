package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigBoardSize         = "board-size"
	ConfigWinLength         = "win-length"
	ConfigVictoryReward     = "victory-reward"
	ConfigFirstPlayRate     = "first-play-rate"
	ConfigReviewRatio       = "review-ratio"
	ConfigOpponentPool      = "opponent-pool"
	ConfigOpponentStatsPath = "opponent-stats-path"
	ConfigLossReplayPath    = "loss-replay-path"
	ConfigMaxReplayEntries  = "max-replay-entries"

	ConfigCurriculumStrategy = "curriculum-strategy"
	ConfigCurriculumEpsilon  = "curriculum-epsilon"

	ConfigBlockBonus         = "block-bonus"
	ConfigMissedBlockPenalty = "missed-block-penalty"
	ConfigCreateThreatBonus  = "create-threat-bonus"
	ConfigMissedWinPenalty   = "missed-win-penalty"

	ConfigShortSemiOpenWeight  = "short-semi-open-weight"
	ConfigShortDangerousWeight = "short-dangerous-weight"
	ConfigShortOpenWeight      = "short-open-weight"
	ConfigLongSemiOpenWeight   = "long-semi-open-weight"
	ConfigLongDangerousWeight  = "long-dangerous-weight"
	ConfigLongOpenWeight       = "long-open-weight"

	ConfigModelsPath         = "models-path"
	ConfigEvaluationEpisodes = "evaluation-episodes"
	ConfigEvaluationThreads  = "evaluation-threads"
	ConfigReportPath         = "report-path"
	ConfigAgentPolicy        = "agent-policy"
	ConfigEpisodes           = "episodes"
	ConfigConfigFile         = "config-file"
	ConfigDebug              = "debug"
)

// Config wraps a viper instance. Every tunable of the training core lives
// here; packages that need them receive a *Config or a typed settings struct
// built from one.
type Config struct {
	sync.Mutex
	*viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigBoardSize, 3)
	v.SetDefault(ConfigWinLength, 3)
	v.SetDefault(ConfigVictoryReward, 1.0)
	v.SetDefault(ConfigFirstPlayRate, 0.5)
	v.SetDefault(ConfigReviewRatio, 0.0)
	v.SetDefault(ConfigOpponentPool, []string{"random"})
	v.SetDefault(ConfigOpponentStatsPath, "")
	v.SetDefault(ConfigLossReplayPath, "")
	v.SetDefault(ConfigMaxReplayEntries, 20)

	v.SetDefault(ConfigCurriculumStrategy, "defeat-rate")
	v.SetDefault(ConfigCurriculumEpsilon, 0.05)

	v.SetDefault(ConfigBlockBonus, 0.2)
	v.SetDefault(ConfigMissedBlockPenalty, -0.6)
	v.SetDefault(ConfigCreateThreatBonus, 0.3)
	v.SetDefault(ConfigMissedWinPenalty, 0.0)

	v.SetDefault(ConfigShortSemiOpenWeight, 0.05)
	v.SetDefault(ConfigShortDangerousWeight, 0.10)
	v.SetDefault(ConfigShortOpenWeight, 1.2)
	v.SetDefault(ConfigLongSemiOpenWeight, 0.05)
	v.SetDefault(ConfigLongDangerousWeight, 0.10)
	v.SetDefault(ConfigLongOpenWeight, 3.0)

	v.SetDefault(ConfigModelsPath, "./models")
	v.SetDefault(ConfigEvaluationEpisodes, 200)
	v.SetDefault(ConfigEvaluationThreads, 4)
	v.SetDefault(ConfigReportPath, "")
	v.SetDefault(ConfigAgentPolicy, "heuristic")
	v.SetDefault(ConfigEpisodes, 1000)
	v.SetDefault(ConfigConfigFile, "")
	v.SetDefault(ConfigDebug, false)
}

// DefaultConfig returns a config with only the built-in defaults. Tests use
// this directly.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{Viper: v}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("morpion", pflag.ContinueOnError)
	fs.Int(ConfigBoardSize, 3, "side length of the square board")
	fs.Int(ConfigWinLength, 3, "run length required to win")
	fs.Float64(ConfigVictoryReward, 1.0, "terminal reward for a win")
	fs.Float64(ConfigFirstPlayRate, 0.5, "probability that the agent moves first")
	fs.Float64(ConfigReviewRatio, 0.0, "probability of replaying a stored losing line")
	fs.StringSlice(ConfigOpponentPool, []string{"random"}, "opponents: random, heuristic or .onnx policy files")
	fs.String(ConfigOpponentStatsPath, "", "opponent statistics JSON file")
	fs.String(ConfigLossReplayPath, "", "loss replay JSON file")
	fs.Int(ConfigMaxReplayEntries, 20, "maximum stored losing lines")
	fs.String(ConfigCurriculumStrategy, "defeat-rate", "opponent weighting: defeat-rate or blended")
	fs.Float64(ConfigCurriculumEpsilon, 0.05, "weight floor added to every defeat rate")
	fs.String(ConfigModelsPath, "./models", "directory holding frozen policies")
	fs.Int(ConfigEvaluationEpisodes, 200, "evaluation games per scripted opponent")
	fs.Int(ConfigEvaluationThreads, 4, "opponents evaluated concurrently")
	fs.String(ConfigReportPath, "", "write the evaluation report (yaml) here")
	fs.String(ConfigAgentPolicy, "heuristic", "agent to drive: random, heuristic or an .onnx policy")
	fs.Int(ConfigEpisodes, 1000, "training episodes to roll out")
	fs.String(ConfigConfigFile, "", "optional yaml config file")
	fs.Bool(ConfigDebug, false, "debug logging")
	return fs
}

// Load reads flags from args, then the environment (MORPION_ prefix), then
// an optional config file. Flags win over the file; the file wins over
// defaults.
func (c *Config) Load(args []string) error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("morpion")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if cf := v.GetString(ConfigConfigFile); cf != "" {
		v.SetConfigFile(cf)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
		log.Debug().Str("file", cf).Msg("read-config-file")
	}
	c.Viper = v
	return c.validate()
}

func (c *Config) validate() error {
	size := c.GetInt(ConfigBoardSize)
	k := c.GetInt(ConfigWinLength)
	if size < 3 {
		return errors.New("board-size must be at least 3")
	}
	if k < 1 || k > size {
		return errors.New("win-length must be between 1 and board-size")
	}
	for _, key := range []string{ConfigFirstPlayRate, ConfigReviewRatio} {
		r := c.GetFloat64(key)
		if r < 0 || r > 1 {
			return errors.New(key + " must be in [0, 1]")
		}
	}
	if c.GetInt(ConfigMaxReplayEntries) < 1 {
		return errors.New("max-replay-entries must be positive")
	}
	return nil
}

// AdjustRelativePaths makes the path settings absolute, relative to basedir,
// when they are not already.
func (c *Config) AdjustRelativePaths(basedir string) {
	for _, key := range []string{ConfigModelsPath, ConfigOpponentStatsPath, ConfigLossReplayPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basedir, p))
	}
}

// Write persists the current settings to the config file, if one is set.
func (c *Config) Write() error {
	c.Lock()
	defer c.Unlock()
	cf := c.GetString(ConfigConfigFile)
	if cf == "" {
		return errors.New("no config file set")
	}
	return c.WriteConfigAs(cf)
}

// SanitizedSettings is what gets logged at startup.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
