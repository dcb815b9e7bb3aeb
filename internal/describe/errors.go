package describe

import "errors"

// Sentinel errors returned (wrapped) by sources and the service.
var (
	// ErrModuleNotFound means the engine does not know the module.
	ErrModuleNotFound = errors.New("module not found")
	// ErrExecutionFailed means the engine could not produce a description.
	ErrExecutionFailed = errors.New("interface description failed")
	// ErrInvalidDescription means the description could not be parsed.
	ErrInvalidDescription = errors.New("invalid interface description")
	// ErrInvalidModuleName means the name cannot be passed to the engine.
	ErrInvalidModuleName = errors.New("invalid module name")
	// ErrListingUnsupported means the source cannot enumerate modules.
	ErrListingUnsupported = errors.New("module listing not supported by source")
)

// IsModuleNotFound returns true if err reports an unknown module.
func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound)
}
