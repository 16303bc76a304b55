package srs

import (
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/memory"
)

// DefaultGraduationRepetitions is the number of reviews a learning item needs
// before Hard or Good moves it to the Review state.
const DefaultGraduationRepetitions = 2

// Params defines all configurable parameters for the scheduler
type Params struct {
	// Memory model weights and interval limits
	Model memory.Params

	// Learning-stage handling
	GraduationRepetitions int
	LearningSteps         map[domain.Rating]time.Duration
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	Weights          [17]float64
	DesiredRetention float64
	MaximumInterval  int

	GraduationRepetitions int

	AgainStep time.Duration
	HardStep  time.Duration
	GoodStep  time.Duration
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Model:                 memory.DefaultParams(),
		GraduationRepetitions: DefaultGraduationRepetitions,
		LearningSteps: map[domain.Rating]time.Duration{
			domain.Again: time.Minute,
			domain.Hard:  5 * time.Minute,
			domain.Good:  10 * time.Minute,
			domain.Easy:  10 * time.Minute,
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.Weights != [17]float64{} {
		params.Model.Weights = config.Weights
	}
	if config.DesiredRetention > 0 {
		params.Model.DesiredRetention = config.DesiredRetention
	}
	if config.MaximumInterval > 0 {
		params.Model.MaximumInterval = config.MaximumInterval
	}

	if config.GraduationRepetitions > 0 {
		params.GraduationRepetitions = config.GraduationRepetitions
	}

	if config.AgainStep > 0 {
		params.LearningSteps[domain.Again] = config.AgainStep
	}
	if config.HardStep > 0 {
		params.LearningSteps[domain.Hard] = config.HardStep
	}
	if config.GoodStep > 0 {
		params.LearningSteps[domain.Good] = config.GoodStep
		params.LearningSteps[domain.Easy] = config.GoodStep
	}

	return params
}

// step returns the short learning delay for rating r.
func (p *Params) step(r domain.Rating) time.Duration {
	if d, ok := p.LearningSteps[r]; ok && d > 0 {
		return d
	}
	return 10 * time.Minute
}
