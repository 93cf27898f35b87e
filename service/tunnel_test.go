package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNameFor(t *testing.T) {
	assert.Equal(t, "zkynet-amsterdam-1", RecordNameFor("Amsterdam 1"))
	assert.Equal(t, "zkynet-new-york-premium", RecordNameFor("New York (Premium)"))
	assert.Equal(t, "zkynet-tunnel", RecordNameFor("!!!"))
	assert.Equal(t, RecordNameFor("Amsterdam 1"), RecordNameFor("Amsterdam 1"))
}

func TestTunnelUpsertUpdatesInPlace(t *testing.T) {
	setupTestDB(t)
	tunnels := NewTunnelService()

	first, err := tunnels.Upsert("zkynet-test", "srv-1", "old config")
	require.NoError(t, err)
	second, err := tunnels.Upsert("zkynet-test", "srv-1", "new config")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id, "same name updates the row")

	all, err := tunnels.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new config", all[0].Config)
}

func TestTunnelFindByNameMissing(t *testing.T) {
	setupTestDB(t)
	tunnels := NewTunnelService()

	record, err := tunnels.FindByName("nope")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestTunnelSetActiveIsExclusive(t *testing.T) {
	setupTestDB(t)
	tunnels := NewTunnelService()

	_, err := tunnels.Upsert("zkynet-a", "srv-a", "cfg")
	require.NoError(t, err)
	_, err = tunnels.Upsert("zkynet-b", "srv-b", "cfg")
	require.NoError(t, err)

	require.NoError(t, tunnels.SetActive("zkynet-a"))
	require.NoError(t, tunnels.SetActive("zkynet-b"))

	active, err := tunnels.FindActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "zkynet-b", active.Name)

	require.NoError(t, tunnels.ClearActive())
	active, err = tunnels.FindActive()
	require.NoError(t, err)
	assert.Nil(t, active)
}
