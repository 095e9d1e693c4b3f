package domain

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformCompatible(t *testing.T) {
	assert.Equal(t, []Platform{PlatformBattle, PlatformUno}, PlatformBattle.Compatible())
	assert.Equal(t, []Platform{PlatformPSN, PlatformUno}, PlatformPSN.Compatible())
	assert.Equal(t, []Platform{PlatformXBL, PlatformUno}, PlatformXBL.Compatible())
	assert.Equal(t, []Platform{PlatformUno}, PlatformUno.Compatible())
	assert.Empty(t, PlatformUnknown.Compatible())
	assert.False(t, PlatformUnknown.Valid())
}

func TestResolvedPlayerJSON(t *testing.T) {
	desc := PlayerDescriptor{InGameName: "[X]Alice", Username: "Alice", Platform: PlatformBattle, Team: "team_1"}

	found := NewFound(desc, Candidate{Username: "Alice#1234", Platform: PlatformUno}, LifetimeStatistics{Wins: 3})
	data, err := json.Marshal(found)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["found"])
	assert.Equal(t, "Alice#1234", decoded["username"])
	assert.Equal(t, "uno", decoded["platformFound"])

	var back Found
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, found, back)

	data, err = json.Marshal(NewNotFound(desc))
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["found"])
	assert.NotContains(t, decoded, "platformFound")
	info := decoded["info"].(map[string]any)
	assert.Equal(t, "Alice", info["username"])
	assert.Equal(t, "battle", info["platform"])
}

func TestWithIdentityReturnsCopy(t *testing.T) {
	first := PlayerDescriptor{Username: "Alice", Platform: PlatformBattle, Team: "a"}
	second := PlayerDescriptor{Username: "Alice", Platform: PlatformBattle, Team: "b"}

	found := NewFound(first, Candidate{Username: "Alice#1", Platform: PlatformBattle}, LifetimeStatistics{Kills: 10})
	rebound := found.WithIdentity(second)

	assert.Equal(t, "a", found.Identity().Team)
	assert.Equal(t, "b", rebound.Identity().Team)
	assert.Equal(t, found.LifetimeStatistics, rebound.LifetimeStatistics)
}

func TestFoundOnly(t *testing.T) {
	d := PlayerDescriptor{Username: "x"}
	players := []ResolvedPlayer{NewNotFound(d), NewFound(d, Candidate{}, LifetimeStatistics{}), NewNotFound(d)}
	assert.Len(t, FoundOnly(players), 1)
}
