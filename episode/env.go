// Package episode runs training episodes: one agent against one opponent
// drawn from the curriculum, with optional replays of lost lines.
package episode

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/config"
	"github.com/lategardener/morpion-RL/curriculum"
	"github.com/lategardener/morpion-RL/opponent"
	"github.com/lategardener/morpion-RL/replay"
	"github.com/lategardener/morpion-RL/reward"
	"github.com/lategardener/morpion-RL/stats"
	"github.com/lategardener/morpion-RL/threats"
)

type State int

const (
	Idle State = iota
	OpponentSelected
	FreshStart
	ReplayStart
	AgentTurn
	OpponentTurn
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OpponentSelected:
		return "opponent-selected"
	case FreshStart:
		return "fresh-start"
	case ReplayStart:
		return "replay-start"
	case AgentTurn:
		return "agent-turn"
	case OpponentTurn:
		return "opponent-turn"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

var (
	ErrEpisodeOver = errors.New("episode is over; call Reset")
	ErrNotStarted  = errors.New("episode not started; call Reset")
)

// Rand is the subset of *frand.RNG an Env draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// StepResult is what the agent gets back from one Step. Reward is always
// from the agent's point of view.
type StepResult struct {
	Observation board.Observation
	Reward      float64
	Done        bool
	Outcome     board.Outcome
	Plies       int
}

// Env owns one board. It is not safe for concurrent use; run one Env per
// goroutine. The pool, analyzer and shaper may be shared.
type Env struct {
	settings   Settings
	pool       *opponent.Pool
	curriculum *curriculum.Curriculum
	shaper     *reward.Shaper
	analyzer   *threats.Analyzer
	rng        Rand

	board     *board.Board
	losses    *replay.Buffer
	state     State
	opp       opponent.Opponent
	agent     board.Player
	opened    bool
	cursor    *replay.Cursor
	agentMvs  []int
	oppMvs    []int
	outcome   board.Outcome
	lastShape float64
	result    StepResult
}

func New(s Settings, pool *opponent.Pool, cur *curriculum.Curriculum, shaper *reward.Shaper,
	analyzer *threats.Analyzer, rng Rand) (*Env, error) {

	if pool == nil || pool.Len() == 0 {
		return nil, errors.New("empty opponent pool")
	}
	if analyzer.Dim() != s.BoardSize || analyzer.WinLength() != s.WinLength {
		return nil, fmt.Errorf("analyzer is for %dx%d/%d, settings want %dx%d/%d",
			analyzer.Dim(), analyzer.Dim(), analyzer.WinLength(), s.BoardSize, s.BoardSize, s.WinLength)
	}
	if s.Opponent != "" {
		if _, ok := pool.Get(s.Opponent); !ok {
			return nil, fmt.Errorf("%w: %q is not in the pool", opponent.ErrUnknownOpponent, s.Opponent)
		}
	}
	b, err := board.NewBoard(s.BoardSize, s.WinLength)
	if err != nil {
		return nil, err
	}
	maxEntries := s.MaxReplayEntries
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Env{
		settings:   s,
		pool:       pool,
		curriculum: cur,
		shaper:     shaper,
		analyzer:   analyzer,
		rng:        rng,
		board:      b,
		losses:     replay.NewBuffer(maxEntries),
		state:      Idle,
	}, nil
}

// NewFromConfig builds an Env and all of its collaborators.
func NewFromConfig(cfg *config.Config, rng Rand) (*Env, error) {
	pool, err := opponent.NewPool(cfg, cfg.GetStringSlice(config.ConfigOpponentPool), rng)
	if err != nil {
		return nil, err
	}
	cur, err := curriculum.NewFromConfig(cfg, pool, rng)
	if err != nil {
		return nil, err
	}
	s := SettingsFromConfig(cfg)
	a := threats.NewAnalyzer(s.BoardSize, s.WinLength)
	return New(s, pool, cur, reward.NewShaper(a, reward.WeightsFromConfig(cfg)), a, rng)
}

// Reset starts a new episode and returns the agent's first observation.
func (e *Env) Reset() (board.Observation, error) {
	e.state = Idle
	if e.settings.OpponentStatsPath != "" && e.curriculum != nil {
		e.curriculum.Refresh(stats.LoadSnapshot(e.settings.OpponentStatsPath))
	}
	if e.settings.ReviewRatio > 0 && e.settings.LossReplayPath != "" {
		e.losses = replay.LoadFile(e.settings.LossReplayPath, e.losses.MaxEntries())
	}
	e.board.Reset()
	e.agentMvs = e.agentMvs[:0]
	e.oppMvs = e.oppMvs[:0]
	e.outcome = board.Outcome{Kind: board.Ongoing}
	e.cursor = nil
	e.lastShape = 0
	e.result = StepResult{}

	e.opp = e.selectOpponent()
	e.state = OpponentSelected

	if e.settings.Opening == OpeningRandom {
		e.cursor = e.losses.MaybeStartReplay(e.settings.ReviewRatio, e.rng)
	}
	if e.cursor != nil {
		e.state = ReplayStart
		e.agent = e.cursor.Entry().Player
	} else {
		e.state = FreshStart
		switch e.settings.Opening {
		case OpeningAgent:
			e.agent = board.PlayerA
		case OpeningOpponent:
			e.agent = board.PlayerB
		default:
			if e.rng.Float64() < e.settings.FirstPlayRate {
				e.agent = board.PlayerA
			} else {
				e.agent = board.PlayerB
			}
		}
	}
	e.opened = e.agent == board.PlayerA
	log.Debug().Str("opponent", e.opp.Name()).Str("start", e.state.String()).
		Bool("agent-opens", e.opened).Msg("episode-reset")

	if !e.opened {
		out, err := e.playOpponent()
		if err != nil {
			return board.Observation{}, err
		}
		if out.Terminal() {
			// Only possible with a win length of 1.
			return e.finish(out, 1).Observation, nil
		}
	}
	e.state = AgentTurn
	return e.board.Observe(e.agent), nil
}

func (e *Env) selectOpponent() opponent.Opponent {
	if e.settings.Opponent != "" {
		o, _ := e.pool.Get(e.settings.Opponent)
		return o
	}
	if e.curriculum == nil {
		o, _ := e.pool.Get(e.pool.Names()[0])
		return o
	}
	return e.curriculum.Choose()
}

// Step plays the agent's move and, unless that ends the game, the
// opponent's reply.
func (e *Env) Step(agentMove int) (StepResult, error) {
	switch e.state {
	case Terminal:
		return StepResult{}, ErrEpisodeOver
	case AgentTurn:
	default:
		return StepResult{}, ErrNotStarted
	}

	oppPlayer := e.agent.Opponent()
	_, oppCouldWin := e.analyzer.WinningMove(oppPlayer, e.board, e.board.LegalMoves())
	before := e.board.Copy()

	if err := e.board.ApplyMove(e.agent, agentMove); err != nil {
		return StepResult{}, err
	}
	e.agentMvs = append(e.agentMvs, agentMove)
	row, col := e.board.Position(agentMove)
	if out := e.board.CheckTerminal(e.agent, row, col); out.Terminal() {
		return e.finish(out, 1), nil
	}

	e.lastShape = e.shaper.Shape(reward.Transition{
		Before:            before,
		After:             e.board,
		Agent:             e.agent,
		Move:              agentMove,
		OpponentWinBefore: oppCouldWin,
	})

	e.state = OpponentTurn
	out, err := e.playOpponent()
	if err != nil {
		return StepResult{}, err
	}
	if out.Terminal() {
		return e.finish(out, 2), nil
	}
	e.state = AgentTurn
	return StepResult{
		Observation: e.board.Observe(e.agent),
		Reward:      e.lastShape,
		Outcome:     out,
		Plies:       2,
	}, nil
}

// playOpponent makes one opponent move, forced by the replay cursor while
// it holds, else chosen live.
func (e *Env) playOpponent() (board.Outcome, error) {
	mover := e.agent.Opponent()
	move, ok := -1, false
	if e.cursor.Active() {
		move, ok = e.cursor.Next(e.board.ValidActions())
		if !ok {
			log.Debug().Ints("agent-moves", e.agentMvs).Msg("replay-diverged")
		}
	}
	if !ok {
		var err error
		move, err = e.opp.ChooseMove(e.board, mover, e.board.LegalMoves())
		if err != nil {
			return board.Outcome{}, fmt.Errorf("opponent %s: %w", e.opp.Name(), err)
		}
	}
	if err := e.board.ApplyMove(mover, move); err != nil {
		return board.Outcome{}, fmt.Errorf("opponent %s: %w", e.opp.Name(), err)
	}
	e.oppMvs = append(e.oppMvs, move)
	row, col := e.board.Position(move)
	return e.board.CheckTerminal(mover, row, col), nil
}

func (e *Env) finish(out board.Outcome, plies int) StepResult {
	e.state = Terminal
	e.outcome = out
	r := e.shaper.Terminal(out, e.agent)
	log.Debug().Str("opponent", e.opp.Name()).Str("outcome", out.String()).
		Float64("reward", r).Int("moves", e.board.MovesPlayed()).Msg("episode-over")
	e.result = StepResult{
		Observation: e.board.Observe(e.agent),
		Reward:      r,
		Done:        true,
		Outcome:     out,
		Plies:       plies,
	}
	return e.result
}

func (e *Env) State() State {
	return e.state
}

// Done is true once the episode has ended, which Reset can already cause
// when the opponent's opening move wins.
func (e *Env) Done() bool {
	return e.state == Terminal
}

// Result is the final StepResult of a finished episode, zero before that.
func (e *Env) Result() StepResult {
	return e.result
}

func (e *Env) Board() *board.Board {
	return e.board
}

func (e *Env) ActionMask() board.ActionMask {
	return e.board.ValidActions()
}

// Observation is the agent's current view.
func (e *Env) Observation() board.Observation {
	return e.board.Observe(e.agent)
}

func (e *Env) Opponent() opponent.Opponent {
	return e.opp
}

func (e *Env) AgentPlayer() board.Player {
	return e.agent
}

func (e *Env) AgentOpened() bool {
	return e.opened
}

func (e *Env) AgentMoves() []int {
	return append([]int(nil), e.agentMvs...)
}

func (e *Env) OpponentMoves() []int {
	return append([]int(nil), e.oppMvs...)
}

func (e *Env) Outcome() board.Outcome {
	return e.outcome
}

// Replaying is true while opponent moves still come from a stored line.
func (e *Env) Replaying() bool {
	return e.cursor.Active()
}

// ReplayBuffer is the in-memory loss buffer. With a loss-replay path set it
// is reloaded from the file at every reset.
func (e *Env) ReplayBuffer() *replay.Buffer {
	return e.losses
}

// LossEntry describes the finished episode as a replayable line, if the
// agent lost it.
func (e *Env) LossEntry() (replay.LossEntry, bool) {
	if e.state != Terminal || e.outcome.Kind != board.Win || e.outcome.Winner == e.agent {
		return replay.LossEntry{}, false
	}
	return replay.LossEntry{Player: e.agent, OpponentMoves: e.OpponentMoves()}, true
}
