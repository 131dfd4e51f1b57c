package cost

import "errors"

// ErrInvalidPredictModel is raised at configuration time when a driver
// names an execution-time prediction model cloudsim does not know.
var ErrInvalidPredictModel = errors.New("invalid predict model")
