package provisioning

import (
	"errors"
	"fmt"

	"github.com/meshprov/meshprov-go/pkg/pdu"
)

// Provisioning errors.
var (
	// ErrInvalidState is returned when an operation is attempted outside the
	// state it requires. No transport I/O is performed.
	ErrInvalidState = errors.New("invalid provisioning state")

	// ErrInvalidParameter is returned for length or range violations.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrProvisioningFailed is the base error for peer-reported failures.
	ErrProvisioningFailed = errors.New("provisioning failed")
)

// Parameter errors. Each wraps ErrInvalidParameter.
var (
	ErrInvalidKeySize          = fmt.Errorf("%w: public key size", ErrInvalidParameter)
	ErrInvalidConfirmationSize = fmt.Errorf("%w: confirmation size", ErrInvalidParameter)
	ErrInvalidRandomSize       = fmt.Errorf("%w: random size", ErrInvalidParameter)
	ErrInvalidDataSize         = fmt.Errorf("%w: provisioning data size", ErrInvalidParameter)
	ErrInvalidData             = fmt.Errorf("%w: provisioning data is empty", ErrInvalidParameter)
)

// PeerFailureError carries the reason code of a FAILED PDU.
type PeerFailureError struct {
	Code pdu.FailureReason
}

func (e *PeerFailureError) Error() string {
	return fmt.Sprintf("device reported failure: %s (0x%02x)", e.Code, uint8(e.Code))
}

// Unwrap returns ErrProvisioningFailed.
func (e *PeerFailureError) Unwrap() error {
	return ErrProvisioningFailed
}
