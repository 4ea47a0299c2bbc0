package ownership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danek0100/External-Observer/internal/errs"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": Conceal, "conceal": Conceal, "forbid": Forbid} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseMode("reveal")
	require.Error(t, err)
}

func TestPolicy_Authorize(t *testing.T) {
	t.Parallel()

	conceal := New(Conceal)
	require.NoError(t, conceal.Authorize("u1", "u1"))
	require.ErrorIs(t, conceal.Authorize("u1", "u2"), errs.ErrNotFound)
	require.ErrorIs(t, conceal.Authorize("", "u2"), errs.ErrUnauthorized)

	forbid := New(Forbid)
	require.NoError(t, forbid.Authorize("u1", "u1"))
	require.ErrorIs(t, forbid.Authorize("u1", "u2"), errs.ErrForbidden)
	require.ErrorIs(t, forbid.Missing(), errs.ErrNotFound)
}

func TestMode_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "conceal", Conceal.String())
	require.Equal(t, "forbid", Forbid.String())
	require.Equal(t, "mode(7)", Mode(7).String())
}
