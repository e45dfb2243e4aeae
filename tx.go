package vault

import (
	"reflect"

	"github.com/crawltoll/vault/errors"
)

// Msg is a message for the engine to take an action (make a state
// transition). It is just the request, and must be validated by the Handlers.
// All authentication information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Validate returns an error if the message does not pass stateless
	// validation. This does not guarantee that the message can be
	// processed, only that it is well formed.
	Validate() error

	// Path returns the message path.
	// This is used by the Router to locate the proper Handler. Msg should
	// be created alongside the Handler that corresponds to them.
	//
	// Path must be constructed as "<extension name>/<type>", for example
	// "wallet/submit_transaction".
	Path() string
}

// Marshaller is anything that can be represented in binary.
//
// Marshal may validate the data before serializing it and unless you
// previously validated the struct, errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshal, as this almost always requires a pointer,
// and functions that only need to marshal bytes can use the Marshaller
// interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data and errors
// should be expected.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Tx represents the data sent from the user to the engine. It includes the
// actual message, along with information needed to authenticate the sender
// (cryptographic signatures), and anything else needed to pass through
// middleware.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate.
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message.
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx.
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message from the transaction and ensures its validity,
// assigning it to the destination.
func LoadMsg(tx Tx, destination Msg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}

	dstVal := reflect.ValueOf(destination)
	if dstVal.Kind() != reflect.Ptr || dstVal.IsNil() {
		return errors.Wrap(errors.ErrType, "destination must be a non nil pointer")
	}
	msgVal := reflect.ValueOf(msg)
	if got, want := msgVal.Type(), dstVal.Type(); got != want {
		return errors.Wrapf(errors.ErrType, "want %s message, got %s", want, got)
	}
	dstVal.Elem().Set(msgVal.Elem())
	return nil
}
