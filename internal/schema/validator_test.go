// file: internal/schema/validator_test.go
package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorAcceptsWellFormedEnvelope(t *testing.T) {
	v := NewValidator(nil)
	require.NoError(t, v.Initialize())
	require.True(t, v.IsInitialized())

	err := v.Validate([]byte(`[1,"ping",1,42,{}]`))
	require.NoError(t, err)
}

func TestValidatorRejectsBadVersion(t *testing.T) {
	v := NewValidator(nil)
	require.NoError(t, v.Initialize())

	err := v.Validate([]byte(`[2,"ping",1,42,{}]`))
	require.Error(t, err)
}

func TestValidatorRejectsNonArray(t *testing.T) {
	v := NewValidator(nil)
	require.NoError(t, v.Initialize())

	err := v.Validate([]byte(`{"not":"an envelope"}`))
	require.Error(t, err)
}

func TestValidatorRejectsMalformedJSON(t *testing.T) {
	v := NewValidator(nil)
	require.NoError(t, v.Initialize())

	err := v.Validate([]byte(`not json at all`))
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, ErrInvalidJSONFormat, valErr.Code)
}

func TestValidateBeforeInitializeFails(t *testing.T) {
	v := NewValidator(nil)
	require.Error(t, v.Validate([]byte(`[1,"ping",1,42,{}]`)))
}
