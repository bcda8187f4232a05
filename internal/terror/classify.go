// file: internal/terror/classify.go
package terror

import "github.com/cockroachdb/errors"

// IsTransportException reports whether err is, or wraps, a
// TTransportException. The servers use it to log a connection that
// ends with one at a lower level than other errors, and TForkingServer
// returns nil instead of the error when Accept fails with one.
func IsTransportException(err error) bool {
	var te *TTransportException
	return errors.As(err, &te)
}

// IsProtocolException reports whether err is, or wraps, a
// TProtocolException.
func IsProtocolException(err error) bool {
	var pe *TProtocolException
	return errors.As(err, &pe)
}

// IsApplicationException reports whether err is, or wraps, a
// TApplicationException.
func IsApplicationException(err error) bool {
	var ae *TApplicationException
	return errors.As(err, &ae)
}
