package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type enumString string

var (
	enumFoo = New(enumString("foo"))
	enumBar = New(enumString("bar"))
)

func TestToEnum(t *testing.T) {
	v, err := ToEnum[enumString]("bar")
	require.NoError(t, err)
	require.Equal(t, enumBar, v)

	_, err = ToEnum[enumString]("Bar")
	require.Error(t, err)

	type unknownEnum string
	_, err = ToEnum[unknownEnum]("bar")
	require.Error(t, err)
}

func TestValues(t *testing.T) {
	New(enumString("foo"))
	require.Equal(t, []enumString{enumFoo, enumBar}, Values[enumString]())
}
