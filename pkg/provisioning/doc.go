// Package provisioning implements the provisioning PDU state machine.
//
// The Machine validates each outbound step against the current state,
// encodes the PDU and hands it to a Writer. Notifications from the device
// are decoded and drive the authoritative state:
//
//	IDLE --Begin--> INVITE
//	INVITE      device CAPABILITIES  --> START
//	START       device PUBLIC_KEY    --> PUBLIC_KEY_EXCHANGE
//	PUBLIC_KEY_EXCHANGE device CONFIRMATION --> CONFIRMATION
//	CONFIRMATION device RANDOM       --> RANDOM
//	RANDOM      AdvanceToData        --> DATA
//	DATA        device COMPLETE      --> COMPLETE
//	any         device FAILED        --> FAILED
//
// A send made in the wrong state fails with ErrInvalidState and a send with
// a malformed parameter fails with an error wrapping ErrInvalidParameter.
// Neither performs I/O or changes state.
package provisioning
