package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range domain.Roles() {
		got, err := domain.ParseRole(r.String())
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	for _, bad := range []string{"", "admin", "SUPERUSER", " ADMIN"} {
		_, err := domain.ParseRole(bad)
		require.ErrorIs(t, err, domain.ErrUnknownRole, bad)
	}
}

func TestProfileUpdateApply(t *testing.T) {
	phone := "0400 000 000"
	u := domain.User{FirstName: "Jo", LastName: "Bloggs", Phone: &phone}

	first := "Joanne"
	empty := ""
	addr := "1 Tuck St"
	got := domain.ProfileUpdate{FirstName: &first, Phone: &empty, Address: &addr}.Apply(u)

	require.Equal(t, "Joanne", got.FirstName)
	require.Equal(t, "Bloggs", got.LastName)
	require.Nil(t, got.Phone)
	require.NotNil(t, got.Address)
	require.Equal(t, addr, *got.Address)

	// original untouched
	require.Equal(t, "Jo", u.FirstName)
	require.True(t, domain.ProfileUpdate{}.IsEmpty())
}

func TestSnapshotAndLive(t *testing.T) {
	u := domain.User{ID: "u1", Email: "jo@example.com", Username: "jo", Role: domain.RoleAdmin, FirstName: "Jo"}
	require.Equal(t, domain.IdentitySnapshot{
		ID: "u1", Email: "jo@example.com", Username: "jo", Role: domain.RoleAdmin, FirstName: "Jo",
	}, u.Snapshot())

	now := time.Now()
	rt := domain.RefreshToken{ExpiresAt: now.Add(time.Second)}
	require.True(t, rt.Live(now))
	require.False(t, rt.Live(now.Add(time.Second)))
}
