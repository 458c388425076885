package harconfig

import "errors"

// Sentinel configuration errors. These are fatal: they are raised before
// any request is replayed and abort the run entirely (see spec §7,
// ConfigError).
var (
	ErrMissingInputArchive = errors.New("config: input_har is required")
	ErrUnknownBodyType     = errors.New("config: minimization.body.body_type must be one of auto, json, form, raw")
	ErrUnknownLogic        = errors.New("config: comparator.logic must be AND or OR")
	ErrUnknownOrderStep    = errors.New("config: minimization.order must only contain headers and body")
	ErrUnknownFormat       = errors.New("config: unrecognized config file format, use .yaml, .yml, or .json")
)
