package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"
	"lukechampine.com/frand"

	"github.com/lategardener/morpion-RL/board"
	"github.com/lategardener/morpion-RL/cache"
	"github.com/lategardener/morpion-RL/config"
)

const cachePrefix = "onnx:"

// modelTemplate holds the raw ONNX bytes. It's shared read-only; each
// inference builds its own graph because a gorgonnx graph isn't reentrant.
type modelTemplate struct {
	data []byte
}

type modelInstance struct {
	backend *gorgonnx.Graph
	model   *onnx.Model
}

func (t *modelTemplate) newInstance() (*modelInstance, error) {
	start := time.Now()
	defer func() {
		log.Debug().Int64("onnx_model_init_ms", time.Since(start).Milliseconds()).
			Msg("onnx model instance created")
	}()
	backend := gorgonnx.NewGraph()
	model := onnx.NewModel(backend)
	if err := model.UnmarshalBinary(t.data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ONNX model: %w", err)
	}
	return &modelInstance{backend: backend, model: model}, nil
}

// loadFunc is the cache loader for keys of the form onnx:<path>.
func loadFunc(cfg *config.Config, key string) (any, error) {
	path, ok := strings.CutPrefix(key, cachePrefix)
	if !ok || path == "" {
		return nil, errors.New("onnx loadfunc - bad cache key: " + key)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX model file: %w", err)
	}
	tmpl := &modelTemplate{data: data}
	// Make sure the bytes are a usable model now rather than on the first
	// move of some episode.
	if _, err := tmpl.newInstance(); err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("model-size", len(data)).Msg("loaded-onnx-model")
	return tmpl, nil
}

// ONNXPolicy is a frozen policy. Its input is a (1, 3, N, N) plane tensor
// (see EncodePlanes) and its first output holds N² logits.
type ONNXPolicy struct {
	path string
	tmpl *modelTemplate
	rng  Rand
}

// LoadONNX loads a policy through the global object cache, so each file is
// read only once per process.
func LoadONNX(cfg *config.Config, path string) (*ONNXPolicy, error) {
	obj, err := cache.Load(cfg, cachePrefix+path, loadFunc)
	if err != nil {
		return nil, err
	}
	tmpl, ok := obj.(*modelTemplate)
	if !ok {
		return nil, errors.New("failed to type-assert ONNX model template")
	}
	return &ONNXPolicy{path: path, tmpl: tmpl, rng: frand.New()}, nil
}

func (p *ONNXPolicy) Path() string {
	return p.path
}

// Logits runs one inference.
func (p *ONNXPolicy) Logits(obs board.Observation) ([]float32, error) {
	n := len(obs.Grid)
	inst, err := p.tmpl.newInstance()
	if err != nil {
		return nil, err
	}
	input := tensor.New(tensor.WithShape(1, 3, n, n), tensor.WithBacking(EncodePlanes(obs)))
	if err := inst.model.SetInput(0, input); err != nil {
		return nil, fmt.Errorf("failed to set ONNX input: %w", err)
	}
	if err := inst.backend.Run(); err != nil {
		return nil, fmt.Errorf("failed to run ONNX model: %w", err)
	}
	output, err := inst.model.GetOutputTensors()
	if err != nil {
		return nil, fmt.Errorf("failed to get output tensors: %w", err)
	}
	if len(output) == 0 {
		return nil, errors.New("onnx model produced no output")
	}
	switch v := output[0].Data().(type) {
	case []float32:
		if len(v) != n*n {
			return nil, fmt.Errorf("expected %d logits, got %d", n*n, len(v))
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected output type: %T", v)
	}
}

func (p *ONNXPolicy) Predict(obs board.Observation, mask board.ActionMask, deterministic bool) (int, error) {
	logits, err := p.Logits(obs)
	if err != nil {
		return -1, err
	}
	if deterministic {
		return ArgmaxLegal(logits, mask)
	}
	return SampleLegal(logits, mask, p.rng)
}
