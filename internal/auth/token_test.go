package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{
		Secret:   "test-secret",
		Issuer:   "pos",
		Audience: "pos-staff",
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return v
}

func TestVerifierRoundTrip(t *testing.T) {
	v := newTestVerifier(t, fixedNow)
	token, err := v.Issue(Staff{ID: "staff-1", Role: RoleManager}, time.Hour)
	require.NoError(t, err)

	staff, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "staff-1", staff.ID)
	require.Equal(t, RoleManager, staff.Role)
}

func TestVerifierRejectsExpired(t *testing.T) {
	token, err := newTestVerifier(t, fixedNow).Issue(Staff{ID: "staff-1", Role: RoleStaff}, time.Minute)
	require.NoError(t, err)

	_, err = newTestVerifier(t, fixedNow.Add(time.Hour)).Verify(token)
	require.Error(t, err)
}

func TestVerifierRejectsWrongAudienceAndSecret(t *testing.T) {
	other, err := NewVerifier(Config{Secret: "test-secret", Issuer: "pos", Audience: "other", Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	token, err := other.Issue(Staff{ID: "staff-1", Role: RoleStaff}, time.Hour)
	require.NoError(t, err)
	_, err = newTestVerifier(t, fixedNow).Verify(token)
	require.Error(t, err)

	forged, err := NewVerifier(Config{Secret: "wrong", Issuer: "pos", Audience: "pos-staff", Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	token, err = forged.Issue(Staff{ID: "staff-1", Role: RoleStaff}, time.Hour)
	require.NoError(t, err)
	_, err = newTestVerifier(t, fixedNow).Verify(token)
	require.Error(t, err)
}

func TestVerifierRejectsUnknownRole(t *testing.T) {
	v := newTestVerifier(t, fixedNow)
	token, err := v.Issue(Staff{ID: "guest", Role: "customer"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(token)
	require.ErrorContains(t, err, "may not manage rules")
}

func TestVerifierRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewBuilder().
		Subject("staff-1").
		Issuer("pos").
		Audience([]string{"pos-staff"}).
		Expiration(fixedNow.Add(time.Hour)).
		Claim(roleClaim, RoleStaff).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS512, []byte("test-secret")))
	require.NoError(t, err)

	_, err = newTestVerifier(t, fixedNow).Verify(string(signed))
	require.ErrorContains(t, err, "unexpected token algorithm")
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{Secret: "  "})
	require.Error(t, err)
}
