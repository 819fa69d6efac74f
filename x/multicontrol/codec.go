package multicontrol

import (
	"github.com/tendermint/go-amino"
)

// cdc is the package codec. The Action and Credential unions are closed:
// exactly the concrete types registered here exist on the wire, and amino
// rejects anything else during decoding.
var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*Action)(nil), nil)
	cdc.RegisterConcrete(&ConfigChange{}, "multicontrol/ConfigChange", nil)
	cdc.RegisterConcrete(&Send{}, "multicontrol/Send", nil)
	cdc.RegisterConcrete(&Borrow{}, "multicontrol/Borrow", nil)
	cdc.RegisterConcrete(&ControllerExecution{}, "multicontrol/ControllerExecution", nil)
	cdc.RegisterConcrete(&Upgrade{}, "multicontrol/Upgrade", nil)
	cdc.RegisterConcrete(&Deactivate{}, "multicontrol/Deactivate", nil)
	cdc.RegisterConcrete(&Delete{}, "multicontrol/Delete", nil)

	cdc.RegisterInterface((*Credential)(nil), nil)
	cdc.RegisterConcrete(&Capability{}, "multicontrol/Capability", nil)
	cdc.RegisterConcrete(&DelegationToken{}, "multicontrol/DelegationToken", nil)
}

// MarshalAction serializes any registered action, keeping the variant tag so
// the exact type is restored on load.
func MarshalAction(action Action) ([]byte, error) {
	return cdc.MarshalBinaryBare(&action)
}

// UnmarshalAction restores an action serialized with MarshalAction.
func UnmarshalAction(raw []byte) (Action, error) {
	var action Action
	if err := cdc.UnmarshalBinaryBare(raw, &action); err != nil {
		return nil, err
	}
	return action, nil
}
