package auth

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
)

func cheapPinHash(t *testing.T, pin string) string {
	t.Helper()
	hash, err := argon2id.CreateHash(pin, &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return hash
}

func TestPinBookAuthenticate(t *testing.T) {
	raw := "mgr-1:manager:" + cheapPinHash(t, "4821") + "; server-7:staff:" + cheapPinHash(t, "1357")
	book, err := ParsePinBook(raw)
	require.NoError(t, err)
	require.Equal(t, 2, book.Len())

	staff, err := book.Authenticate("mgr-1", "4821")
	require.NoError(t, err)
	require.Equal(t, Staff{ID: "mgr-1", Role: RoleManager}, staff)

	_, err = book.Authenticate("mgr-1", "0000")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = book.Authenticate("nobody", "4821")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestParsePinBookRejectsBadEntries(t *testing.T) {
	_, err := ParsePinBook("mgr-1:manager")
	require.Error(t, err)

	_, err = ParsePinBook("mgr-1:owner:" + cheapPinHash(t, "4821"))
	require.Error(t, err)

	_, err = ParsePinBook("mgr-1:manager:not-a-hash")
	require.Error(t, err)

	book, err := ParsePinBook("")
	require.NoError(t, err)
	require.Zero(t, book.Len())
}

func TestHashPin(t *testing.T) {
	_, err := HashPin("12")
	require.Error(t, err)
}
