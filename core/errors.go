package core

import "errors"

// Registration-time failures abort the whole interface init sequence:
// a missing interface silently breaks test fidelity, so startup is
// fail-fast with no retry.
var (
	ErrDuplicateInterface     = errors.New("duplicate interface")
	ErrLockConflict           = errors.New("interface lock conflict")
	ErrUnknownLAGGroup        = errors.New("unknown link aggregation group")
	ErrKernelBind             = errors.New("kernel bind failed")
	ErrBackendInit            = errors.New("io backend init failed")
	ErrUnknownAdjacencyTarget = errors.New("unknown adjacency target")
)
