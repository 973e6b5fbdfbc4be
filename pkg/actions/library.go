package actions

import (
	"fmt"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Library is the fixed catalog of actions, one per type
type Library struct {
	actions map[Type]Action
}

// NewLibrary registers the given actions. Registering a type twice is an error.
func NewLibrary(actions ...Action) (*Library, error) {
	lib := &Library{actions: make(map[Type]Action, len(actions))}
	for _, a := range actions {
		if _, exists := lib.actions[a.Type()]; exists {
			return nil, fmt.Errorf("action %s already registered", a.Type())
		}
		lib.actions[a.Type()] = a
	}
	return lib, nil
}

// NewMerklyLibrary returns the library holding both Merkly actions
func NewMerklyLibrary(opts Options) *Library {
	lib, _ := NewLibrary(NewMerklyHFT(opts), NewMerklyHNFT(opts))
	return lib
}

// Get returns the action registered for t
func (l *Library) Get(t Type) (Action, bool) {
	a, ok := l.actions[t]
	return a, ok
}

// Supports reports whether any registered action can start from network
func (l *Library) Supports(network wallet.NetworkType) bool {
	for _, a := range l.actions {
		if a.Supports(network) {
			return true
		}
	}
	return false
}
