package mctl

import (
	"encoding/json"

	"github.com/tendermint/tendermint/libs/common"
)

// Handler is a core engine that can process a few specific messages, for
// example "approve a proposal" or "execute a resolved action".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality like
// authentication or fee-handling to many Handlers.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (DeliverResult, error)
}

// Registry is an interface to register your handler, the setup side of a
// router.
type Registry interface {
	Handle(path string, h Handler)
}

// CheckResult captures any info from a pre-flight check.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte

	// GasAllocated is the maximum units of work we allow this tx to
	// perform.
	GasAllocated int64
}

// DeliverResult captures any info from executing a transaction.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte

	// Tags are observable events emitted for external indexers. They do
	// not influence correctness and carry no authority.
	Tags []common.KVPair
}

// Options are the app options. Each extension can look up its key and parse
// the json as desired.
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key, and parses the json
// into the given obj. Returns an error if it cannot parse. Noop and no error
// if key is missing.
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize extensions from genesis
// file contents.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
