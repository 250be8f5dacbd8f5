package thermostat

import "errors"

// Neither error is fatal: the controller stays in its previous valid state
// and the caller decides whether the rejection is worth logging.
var (
	// ErrInvalidConfiguration rejects a configuration update that violates
	// setpoint ordering or uses a negative deadband. Prior configuration
	// remains in effect.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOutOfOrderSample rejects a sample whose timestamp precedes the
	// previously accepted one. The sample is dropped; state is unchanged.
	ErrOutOfOrderSample = errors.New("out-of-order sample")
)
