package reward

import (
	"github.com/lategardener/morpion-RL/config"
)

// Weights are the tunables of reward shaping. "Short" threats are
// winLength-2 long, "long" threats winLength-1.
type Weights struct {
	VictoryReward      float64 `yaml:"victory_reward"`
	BlockBonus         float64 `yaml:"block_bonus"`
	MissedBlockPenalty float64 `yaml:"missed_block_penalty"`
	CreateThreatBonus  float64 `yaml:"create_threat_bonus"`
	MissedWinPenalty   float64 `yaml:"missed_win_penalty"`

	ShortSemiOpen  float64 `yaml:"short_semi_open"`
	ShortDangerous float64 `yaml:"short_dangerous"`
	ShortOpen      float64 `yaml:"short_open"`
	LongSemiOpen   float64 `yaml:"long_semi_open"`
	LongDangerous  float64 `yaml:"long_dangerous"`
	LongOpen       float64 `yaml:"long_open"`
}

func DefaultWeights() Weights {
	return Weights{
		VictoryReward:      1.0,
		BlockBonus:         0.2,
		MissedBlockPenalty: -0.6,
		CreateThreatBonus:  0.3,
		MissedWinPenalty:   0,
		ShortSemiOpen:      0.05,
		ShortDangerous:     0.10,
		ShortOpen:          1.2,
		LongSemiOpen:       0.05,
		LongDangerous:      0.10,
		LongOpen:           3.0,
	}
}

func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		VictoryReward:      cfg.GetFloat64(config.ConfigVictoryReward),
		BlockBonus:         cfg.GetFloat64(config.ConfigBlockBonus),
		MissedBlockPenalty: cfg.GetFloat64(config.ConfigMissedBlockPenalty),
		CreateThreatBonus:  cfg.GetFloat64(config.ConfigCreateThreatBonus),
		MissedWinPenalty:   cfg.GetFloat64(config.ConfigMissedWinPenalty),
		ShortSemiOpen:      cfg.GetFloat64(config.ConfigShortSemiOpenWeight),
		ShortDangerous:     cfg.GetFloat64(config.ConfigShortDangerousWeight),
		ShortOpen:          cfg.GetFloat64(config.ConfigShortOpenWeight),
		LongSemiOpen:       cfg.GetFloat64(config.ConfigLongSemiOpenWeight),
		LongDangerous:      cfg.GetFloat64(config.ConfigLongDangerousWeight),
		LongOpen:           cfg.GetFloat64(config.ConfigLongOpenWeight),
	}
}
