package syncer

import (
	"errors"

	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
)

// Kind classifies why a collection failed to sync.
type Kind int

const (
	KindNone Kind = iota
	KindIntegrity
	KindChainBroken
	KindVersionTooNew
	KindHeadConflict
	KindTransport
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindIntegrity:
		return "integrity"
	case KindChainBroken:
		return "chain broken"
	case KindVersionTooNew:
		return "version too new"
	case KindHeadConflict:
		return "head conflict"
	case KindTransport:
		return "transport"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// SyncResult is the outcome of one collection in a sync pass.
type SyncResult struct {
	CollectionUID string
	Name          string
	Kind          Kind
	Err           error

	Pulled int
	Pushed int
}

func (r SyncResult) OK() bool {
	return r.Err == nil
}

// TransportError marks a failure reported by the journal server or the
// connection to it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// classify maps err to a Kind. Crypto and chain failures win over the layer
// the error passed through.
func classify(err error) Kind {
	var te *TransportError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, journal.ErrChainBroken):
		return KindChainBroken
	case errors.Is(err, cryptox.ErrVersionTooNew):
		return KindVersionTooNew
	case errors.Is(err, cryptox.ErrIntegrity):
		return KindIntegrity
	case errors.Is(err, common.ErrHeadConflict):
		return KindHeadConflict
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindLocal
	}
}
