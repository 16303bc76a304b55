package memory

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when model parameters are out of range.
var ErrInvalidParams = errors.New("memory: parameters out of range")

// DefaultWeights are the published FSRS-4 default weights.
var DefaultWeights = [17]float64{
	0.4, 0.6, 2.4, 5.8, // w[0..3]   initial stability per rating
	4.93, 0.94, 0.86, 0.01, // w[4..7]   difficulty
	1.49, 0.14, 0.94, // w[8..10]  recall stability
	2.18, 0.05, 0.34, 1.26, // w[11..14] forget stability
	0.29, 2.61, // w[15..16] hard penalty, easy bonus
}

const (
	// DefaultDesiredRetention is the recall probability reviews are scheduled at.
	DefaultDesiredRetention = 0.9

	// DefaultMaximumInterval caps scheduled intervals at roughly 100 years.
	DefaultMaximumInterval = 36500

	// MinimumStability is the floor applied wherever stability feeds a projection.
	MinimumStability = 0.1
)

// Params configures a Model. Zero values are replaced with defaults.
type Params struct {
	Weights          [17]float64 `mapstructure:"weights"`
	DesiredRetention float64     `mapstructure:"desired_retention"`
	MaximumInterval  int         `mapstructure:"maximum_interval"`
}

// DefaultParams returns the default model parameters.
func DefaultParams() Params {
	return Params{
		Weights:          DefaultWeights,
		DesiredRetention: DefaultDesiredRetention,
		MaximumInterval:  DefaultMaximumInterval,
	}
}

// withDefaults fills zero-valued fields.
func (p Params) withDefaults() Params {
	if p.Weights == [17]float64{} {
		p.Weights = DefaultWeights
	}
	if p.DesiredRetention == 0 {
		p.DesiredRetention = DefaultDesiredRetention
	}
	if p.MaximumInterval == 0 {
		p.MaximumInterval = DefaultMaximumInterval
	}
	return p
}

// Validate checks that the parameters can drive the model.
func (p Params) Validate() error {
	for i, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("%w: w[%d] = %f is negative", ErrInvalidParams, i, w)
		}
	}
	for i := 0; i < 4; i++ {
		if p.Weights[i] <= 0 {
			return fmt.Errorf("%w: initial stability w[%d] must be positive", ErrInvalidParams, i)
		}
	}
	if p.DesiredRetention <= 0 || p.DesiredRetention >= 1 {
		return fmt.Errorf("%w: desired retention %f not in (0, 1)", ErrInvalidParams, p.DesiredRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidParams, p.MaximumInterval)
	}
	return nil
}
