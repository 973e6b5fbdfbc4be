package selector

import (
	"fmt"
	"math/rand/v2"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// candidateWeight is the weight of every pending action type
const candidateWeight = 0.2

// Kind classifies a selection
type Kind int

const (
	// Chosen carries the action type to run
	Chosen Kind = iota
	// Processed means every target has been met
	Processed
	// NoDestination means work remains but no destination network qualifies
	NoDestination
)

func (k Kind) String() string {
	switch k {
	case Chosen:
		return "chosen"
	case Processed:
		return "processed"
	case NoDestination:
		return "no_destination"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Selection is the result of Select
type Selection struct {
	Kind   Kind
	Action actions.Type
}

// Selector draws pending actions. The zero value uses math/rand/v2.
type Selector struct {
	// Float returns a number in [0, 1)
	Float func() float64
}

// New returns a selector backed by the global random source
func New() *Selector {
	return &Selector{Float: rand.Float64}
}

// Select picks an action type the wallet has not finished yet. Selection
// does no I/O; done is supplied by a progress.Source.
func (s *Selector) Select(w *models.Wallet, done progress.Counts, destinations []wallet.NetworkType) Selection {
	targets := progress.Targets(w)

	var candidates []actions.Type
	for _, t := range actions.Types {
		if done[t] < targets[t] {
			candidates = append(candidates, t)
		}
	}

	if len(candidates) == 0 {
		return Selection{Kind: Processed}
	}
	if len(destinations) == 0 {
		return Selection{Kind: NoDestination}
	}

	return Selection{Kind: Chosen, Action: s.draw(candidates)}
}

func (s *Selector) draw(candidates []actions.Type) actions.Type {
	float := s.Float
	if float == nil {
		float = rand.Float64
	}

	total := candidateWeight * float64(len(candidates))
	r := float() * total
	for _, t := range candidates {
		r -= candidateWeight
		if r < 0 {
			return t
		}
	}
	return candidates[len(candidates)-1]
}
