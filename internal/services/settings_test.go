package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSettingsService(tdb)

	assert.Equal(t, "fallback", svc.Get(context.Background(), "security", "banner", "fallback"))

	require.NoError(t, svc.Set(context.Background(), "security", "banner", "Official use only"))
	assert.Equal(t, "Official use only", svc.Get(context.Background(), "security", "banner", "fallback"))

	// Setting the same key again overwrites rather than duplicating.
	require.NoError(t, svc.Set(context.Background(), "security", "banner", "Restricted"))
	values, err := svc.Namespace(context.Background(), "security")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"banner": "Restricted"}, values)
}

func TestSettingsCaching(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSettingsService(tdb)

	require.NoError(t, svc.Set(context.Background(), "security", "banner", "Official use only"))

	// Prime the cache, then change the row behind the service's back.
	// The stale value keeps being served until a write invalidates it.
	values, err := svc.Namespace(context.Background(), "security")
	require.NoError(t, err)
	assert.Equal(t, "Official use only", values["banner"])

	require.NoError(t, tdb.Exec(
		"UPDATE settings SET value = ? WHERE namespace = ? AND key = ?",
		"Tampered", "security", "banner").Error)

	assert.Equal(t, "Official use only", svc.Get(context.Background(), "security", "banner", ""))
	values, err = svc.Namespace(context.Background(), "security")
	require.NoError(t, err)
	assert.Equal(t, "Official use only", values["banner"])

	// Mutating the returned map must not leak into the cache.
	values["banner"] = "mutated"
	assert.Equal(t, "Official use only", svc.Get(context.Background(), "security", "banner", ""))

	// A write through the service drops the namespace from the cache.
	require.NoError(t, svc.Set(context.Background(), "security", "banner", "Restricted"))
	assert.Equal(t, "Restricted", svc.Get(context.Background(), "security", "banner", ""))

	require.NoError(t, svc.SetMany(context.Background(), "security", map[string]string{"banner": "Classified"}))
	values, err = svc.Namespace(context.Background(), "security")
	require.NoError(t, err)
	assert.Equal(t, "Classified", values["banner"])
}

func TestSetManyScopedToNamespace(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewSettingsService(tdb)

	require.NoError(t, svc.Set(context.Background(), "glam", "default_sector", "archive"))
	require.NoError(t, svc.SetMany(context.Background(), "privacy", map[string]string{
		"dsar_due_days":       "30",
		"breach_notify_hours": "72",
	}))

	privacy, err := svc.Namespace(context.Background(), "privacy")
	require.NoError(t, err)
	assert.Len(t, privacy, 2)
	assert.Equal(t, "30", privacy["dsar_due_days"])

	glam, err := svc.Namespace(context.Background(), "glam")
	require.NoError(t, err)
	assert.Len(t, glam, 1)
}
