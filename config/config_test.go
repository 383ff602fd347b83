package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigBoardSize), 3)
	is.Equal(cfg.GetInt(ConfigWinLength), 3)
	is.Equal(cfg.GetFloat64(ConfigVictoryReward), 1.0)
	is.Equal(cfg.GetFloat64(ConfigFirstPlayRate), 0.5)
	is.Equal(cfg.GetFloat64(ConfigReviewRatio), 0.0)
	is.Equal(cfg.GetStringSlice(ConfigOpponentPool), []string{"random"})
	is.Equal(cfg.GetInt(ConfigMaxReplayEntries), 20)
	is.Equal(cfg.GetString(ConfigCurriculumStrategy), "defeat-rate")
	is.Equal(cfg.GetFloat64(ConfigCurriculumEpsilon), 0.05)
	is.NoErr(cfg.validate())
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{
		"--board-size", "7",
		"--win-length", "5",
		"--opponent-pool", "random,heuristic,best.onnx",
		"--review-ratio", "0.25",
	})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigBoardSize), 7)
	is.Equal(cfg.GetInt(ConfigWinLength), 5)
	is.Equal(cfg.GetStringSlice(ConfigOpponentPool), []string{"random", "heuristic", "best.onnx"})
	is.Equal(cfg.GetFloat64(ConfigReviewRatio), 0.25)
	// untouched keys keep their defaults
	is.Equal(cfg.GetFloat64(ConfigLongOpenWeight), 3.0)
}

func TestLoadEnvAndFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "morpion.yaml")
	is.NoErr(os.WriteFile(path, []byte("board-size: 6\nwin-length: 4\nblock-bonus: 0.5\n"), 0644))
	t.Setenv("MORPION_FIRST_PLAY_RATE", "0.9")

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path, "--win-length", "5"}))
	is.Equal(cfg.GetInt(ConfigBoardSize), 6)
	is.Equal(cfg.GetInt(ConfigWinLength), 5) // the flag wins over the file
	is.Equal(cfg.GetFloat64(ConfigBlockBonus), 0.5)
	is.Equal(cfg.GetFloat64(ConfigFirstPlayRate), 0.9)
}

func TestValidation(t *testing.T) {
	is := is.New(t)
	for _, args := range [][]string{
		{"--board-size", "2"},
		{"--win-length", "4"},
		{"--win-length", "0"},
		{"--first-play-rate", "1.5"},
		{"--review-ratio", "-0.1"},
		{"--max-replay-entries", "0"},
	} {
		cfg := &Config{}
		is.True(cfg.Load(args) != nil)
	}
}

func TestShortWinLengths(t *testing.T) {
	is := is.New(t)
	for _, k := range []string{"1", "2"} {
		cfg := &Config{}
		is.NoErr(cfg.Load([]string{"--win-length", k}))
	}
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.Set(ConfigOpponentStatsPath, "data/stats.json")
	cfg.Set(ConfigLossReplayPath, "/abs/losses.json")
	cfg.AdjustRelativePaths("/base")
	is.Equal(cfg.GetString(ConfigOpponentStatsPath), "/base/data/stats.json")
	is.Equal(cfg.GetString(ConfigLossReplayPath), "/abs/losses.json")
	is.Equal(cfg.GetString(ConfigModelsPath), "/base/models")
}

func TestWrite(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.True(cfg.Write() != nil)

	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg.Set(ConfigConfigFile, path)
	cfg.Set(ConfigBoardSize, 9)
	is.NoErr(cfg.Write())

	loaded := &Config{}
	is.NoErr(loaded.Load([]string{"--config-file", path}))
	is.Equal(loaded.GetInt(ConfigBoardSize), 9)
}
