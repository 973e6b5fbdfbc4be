package actions

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// OutcomeKind classifies the result of an action
type OutcomeKind int

const (
	// OutcomeSuccess means every transaction of the action was mined successfully
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailed means a step failed; the wallet retries after a short delay
	OutcomeFailed
	// OutcomeNoBalance means the wallet cannot pay for the action where it stands
	OutcomeNoBalance
	// OutcomeNoAction means nothing was attempted
	OutcomeNoAction
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeNoBalance:
		return "no_balance"
	case OutcomeNoAction:
		return "no_action"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of executing an action
type Outcome struct {
	Kind     OutcomeKind
	Message  string
	TxHashes []common.Hash
	Err      error
}

// Success builds a successful outcome
func Success(message string, hashes ...common.Hash) Outcome {
	return Outcome{Kind: OutcomeSuccess, Message: message, TxHashes: hashes}
}

// Failed builds a failed outcome carrying the cause
func Failed(reason string, err error, hashes ...common.Hash) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: reason, Err: err, TxHashes: hashes}
}

// NoBalance builds an outcome for a wallet that cannot pay
func NoBalance(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeNoBalance, Message: reason, Err: err}
}

// NoAction builds an outcome for an action that was not attempted
func NoAction(reason string) Outcome {
	return Outcome{Kind: OutcomeNoAction, Message: reason}
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s: %s: %v", o.Kind, o.Message, o.Err)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Message)
}
