package predband

import (
	"errors"

	"predband/family"
	"predband/model"
)

// ErrUsage marks malformed requests: a significance level or probability
// outside (0,1), an unrecognized comparison operator, a bootstrap request
// without a refitter.
var ErrUsage = errors.New("predband: invalid request")

// ErrUnsupportedModel marks family/link combinations outside the supported
// set, including prediction-type requests on Bernoulli fits.
var ErrUnsupportedModel = family.ErrUnsupported

// ErrEncoding marks target rows that cannot be encoded against the original
// fit's design matrix.
var ErrEncoding = model.ErrEncoding

// WarningKind classifies non-fatal conditions surfaced alongside results.
type WarningKind int

const (
	// WarnOverwrite reports that a result column replaced an existing
	// column of the same name.
	WarnOverwrite WarningKind = iota

	// WarnConvergence reports that the supplied fit, or a share of
	// bootstrap refits, did not converge; results are produced anyway.
	WarnConvergence
)

// Warning is a non-fatal condition the caller should see. Warnings are also
// logged, but the returned values are the contract.
type Warning struct {
	Kind    WarningKind
	Message string
}
