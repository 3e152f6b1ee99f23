package domain

import (
	"slices"
	"time"

	"go.trai.ch/zerr"
)

// TxState is the lifecycle state of a transaction.
type TxState string

const (
	TxPlanning           TxState = "planning"
	TxStaged             TxState = "staged"
	TxCommitting         TxState = "committing"
	TxCommitted          TxState = "committed"
	TxFailed             TxState = "failed"
	TxRolledBack         TxState = "rolled_back"
	TxPartiallyCommitted TxState = "partially_committed"
)

var txTransitions = map[TxState][]TxState{
	TxPlanning:   {TxStaged, TxFailed},
	TxStaged:     {TxCommitting, TxRolledBack},
	TxCommitting: {TxCommitted, TxPartiallyCommitted},
}

// IsTerminal reports whether no further transition is possible.
func (s TxState) IsTerminal() bool {
	_, ok := txTransitions[s]
	return !ok
}

// Transaction records the execution of one intent.
type Transaction struct {
	ID         string    `json:"id"`
	Intent     Intent    `json:"intent"`
	State      TxState   `json:"state"`
	Plan       Plan      `json:"plan"`
	Completed  []Action  `json:"completed,omitempty"`
	Failed     []Action  `json:"failed,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// NewTransaction starts a transaction in the planning state.
func NewTransaction(id string, intent Intent, now time.Time) *Transaction {
	return &Transaction{
		ID:        id,
		Intent:    intent,
		State:     TxPlanning,
		StartedAt: now,
	}
}

// Transition moves the transaction to the next state.
func (t *Transaction) Transition(to TxState) error {
	if !slices.Contains(txTransitions[t.State], to) {
		err := zerr.With(zerr.Wrap(ErrInvalidTransition, "transition rejected"), "from", string(t.State))
		return zerr.With(err, "to", string(to))
	}
	t.State = to
	return nil
}

// Finish moves the transaction to a terminal state and records the outcome.
func (t *Transaction) Finish(to TxState, err error, now time.Time) error {
	if terr := t.Transition(to); terr != nil {
		return terr
	}
	if err != nil {
		t.Error = err.Error()
	}
	t.FinishedAt = now
	return nil
}
