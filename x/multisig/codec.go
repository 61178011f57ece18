package multisig

import (
	"github.com/near/borsh-go"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// Instruction variant tags on the wire. The tag byte prefixes the borsh
// encoded message body.
const (
	tagCreateMultisig uint8 = iota
	tagPropose
	tagApprove
	tagReject
	tagExecute
)

// EncodeInstruction turns a message into its wire representation.
func EncodeInstruction(msg lez.Msg) ([]byte, error) {
	var tag uint8
	switch msg.(type) {
	case *CreateMultisigMsg:
		tag = tagCreateMultisig
	case *ProposeMsg:
		tag = tagPropose
	case *ApproveMsg:
		tag = tagApprove
	case *RejectMsg:
		tag = tagReject
	case *ExecuteMsg:
		tag = tagExecute
	default:
		return nil, errors.Wrapf(errors.ErrType, "%T is not a multisig message", msg)
	}
	body, err := borshSerialize(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot serialize %T", msg)
	}
	return append([]byte{tag}, body...), nil
}

// DecodeInstruction parses a wire instruction back into a typed message. The
// message is not validated.
func DecodeInstruction(raw []byte) (lez.Msg, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "instruction")
	}
	var msg lez.Msg
	switch raw[0] {
	case tagCreateMultisig:
		msg = &CreateMultisigMsg{}
	case tagPropose:
		msg = &ProposeMsg{}
	case tagApprove:
		msg = &ApproveMsg{}
	case tagReject:
		msg = &RejectMsg{}
	case tagExecute:
		msg = &ExecuteMsg{}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown instruction tag %d", raw[0])
	}
	if err := borsh.Deserialize(msg, raw[1:]); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot deserialize instruction: %v", err)
	}
	return msg, nil
}

func borshSerialize(msg lez.Msg) ([]byte, error) {
	switch m := msg.(type) {
	case *CreateMultisigMsg:
		return borsh.Serialize(*m)
	case *ProposeMsg:
		return borsh.Serialize(*m)
	case *ApproveMsg:
		return borsh.Serialize(*m)
	case *RejectMsg:
		return borsh.Serialize(*m)
	case *ExecuteMsg:
		return borsh.Serialize(*m)
	}
	return nil, errors.Wrapf(errors.ErrType, "%T is not a multisig message", msg)
}
