package episode

import (
	"github.com/lategardener/morpion-RL/config"
)

// Opening forces who moves first. OpeningRandom flips a coin weighted by
// FirstPlayRate.
type Opening int

const (
	OpeningRandom Opening = iota
	OpeningAgent
	OpeningOpponent
)

// Settings is everything an Env needs besides its collaborators. It is
// copied into the Env at construction; nothing in it changes afterwards.
type Settings struct {
	BoardSize         int
	WinLength         int
	FirstPlayRate     float64
	ReviewRatio       float64
	OpponentStatsPath string
	LossReplayPath    string
	MaxReplayEntries  int

	// Opponent pins every episode to one pool entry instead of asking the
	// curriculum.
	Opponent string
	Opening  Opening
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BoardSize:         cfg.GetInt(config.ConfigBoardSize),
		WinLength:         cfg.GetInt(config.ConfigWinLength),
		FirstPlayRate:     cfg.GetFloat64(config.ConfigFirstPlayRate),
		ReviewRatio:       cfg.GetFloat64(config.ConfigReviewRatio),
		OpponentStatsPath: cfg.GetString(config.ConfigOpponentStatsPath),
		LossReplayPath:    cfg.GetString(config.ConfigLossReplayPath),
		MaxReplayEntries:  cfg.GetInt(config.ConfigMaxReplayEntries),
	}
}

// ForOpponent is the evaluation setup: a fixed opponent, no review
// episodes and no statistics reads.
func (s Settings) ForOpponent(name string, opening Opening) Settings {
	s.Opponent = name
	s.Opening = opening
	s.ReviewRatio = 0
	s.OpponentStatsPath = ""
	s.LossReplayPath = ""
	return s
}
