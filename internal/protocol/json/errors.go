// file: internal/protocol/json/errors.go
package json

import (
	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
)

func newBadCharError(want, got byte) error {
	return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
		errors.Newf("expected %q but found %q", want, got))
}

func newInvalidDataError(format string, args ...any) error {
	return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData, errors.Newf(format, args...))
}

func newBadVersionError(got int64) error {
	return terror.NewTProtocolExceptionWithType(terror.TProtocolBadVersion,
		errors.Newf("expected protocol version %d but found %d", jsonVersion1, got))
}
