package apperr

import "errors"

// #region classes
// Error classes surfaced by the pipeline. Callers wrap them with
// fmt.Errorf("%w: ...", ErrX) and test with errors.Is or the IsX helpers.
var (
	ErrIO     = errors.New("io error")
	ErrParse  = errors.New("parse error")
	ErrConfig = errors.New("configuration error")
	ErrSchema = errors.New("schema error")
)

// #endregion classes

// #region checks
// IsIO reports whether err belongs to the I/O class.
func IsIO(err error) bool { return errors.Is(err, ErrIO) }

// IsParse reports whether err belongs to the parse class.
func IsParse(err error) bool { return errors.Is(err, ErrParse) }

// IsConfig reports whether err belongs to the configuration class.
func IsConfig(err error) bool { return errors.Is(err, ErrConfig) }

// IsSchema reports whether err belongs to the schema class.
func IsSchema(err error) bool { return errors.Is(err, ErrSchema) }

// Class returns a short name for the error class of err, or "" if none matches.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case IsIO(err):
		return "io"
	case IsParse(err):
		return "parse"
	case IsConfig(err):
		return "config"
	case IsSchema(err):
		return "schema"
	}
	return ""
}

// #endregion checks
