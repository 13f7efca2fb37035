package services

import (
	"fmt"
	"testing"

	"draft-session-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createdSessionID(t *testing.T, svc *SessionService) string {
	t.Helper()
	var session models.Session
	require.NoError(t, svc.DB.Order("lobby_created_at DESC").First(&session).Error)
	return session.ID
}

func TestLobbyAndJoin(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	msg, err := svc.Lobby("Tuesday Night", "p1", "Alice")
	require.NoError(t, err)
	assert.Contains(t, msg, "Session lobby 'Tuesday Night' created")
	assert.Contains(t, msg, "Players: Alice.")

	id := createdSessionID(t, svc)

	session, err := loadSession(svc.DB, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateLobby, session.State)
	require.NotNil(t, session.Settings)
	assert.Equal(t, models.ModeExclusivePool, session.Settings.DraftingMode)
	assert.True(t, session.Settings.BaseGame)
	assert.Equal(t, 3, session.Settings.FactionsPerPlayer)

	msg, err = svc.Join(id, "p2", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob has joined the lobby. Current number of players is 2.", msg)

	_, err = svc.Join(id, "p2", "Bob")
	assert.ErrorIs(t, err, ErrAlreadyComplete)
}

func TestJoinCapacityAndState(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	_, err := svc.Lobby("Full House", "p1", "Player 1")
	require.NoError(t, err)
	id := createdSessionID(t, svc)

	for i := 2; i <= models.MaxPlayers; i++ {
		_, err := svc.Join(id, fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i))
		require.NoError(t, err)
	}
	_, err = svc.Join(id, "p9", "Player 9")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	started := seedSession(t, svc.DB, models.StateStarted, models.SessionSettings{}, []string{"Alice"})
	_, err = svc.Join(started.ID, "p10", "Late")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLeave(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	_, err := svc.Lobby("Leavers", "p1", "Alice")
	require.NoError(t, err)
	id := createdSessionID(t, svc)
	_, err = svc.Join(id, "p2", "Bob")
	require.NoError(t, err)

	msg, err := svc.Leave(id, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Bob has left the lobby. Current number of players is 1.", msg)

	msg, err = svc.Leave(id, "p1")
	require.NoError(t, err)
	assert.Contains(t, msg, "All players have left the lobby")

	_, err = svc.Leave(id, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	_, err := svc.Lobby("Doomed", "p1", "Alice")
	require.NoError(t, err)
	id := createdSessionID(t, svc)

	msg, err := svc.Cancel(id)
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted Doomed", msg)

	_, err = loadSession(svc.DB, id)
	assert.ErrorIs(t, err, ErrNotFound)

	finished := seedSession(t, svc.DB, models.StateFinished, models.SessionSettings{}, []string{"Alice"})
	_, err = svc.Cancel(finished.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfig(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	_, err := svc.Lobby("Tweakable", "p1", "Alice")
	require.NoError(t, err)
	id := createdSessionID(t, svc)

	view, err := svc.Config(id, "", "")
	require.NoError(t, err)
	assert.Contains(t, view, "drafting_mode")
	assert.Contains(t, view, "**EXCLUSIVE_POOL**")

	// Property names resolve fuzzily.
	msg, err := svc.Config(id, "drafting_mod", "PICKS_ONLY")
	require.NoError(t, err)
	assert.Equal(t, "Set property 'drafting_mode' to 'PICKS_ONLY'", msg)

	msg, err = svc.Config(id, "codex", "yes")
	require.NoError(t, err)
	assert.Equal(t, "Set property 'codex' to 'true'", msg)

	_, err = svc.Config(id, "factions_per_player", "9")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Config(id, "base_game", "maybe")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Config(id, "drafting_mode", "zzzzzzzzzzzzzzzzzzzzzz")
	assert.ErrorIs(t, err, ErrNoMatch)

	require.NoError(t, svc.DB.Model(&models.Session{}).Where("id = ?", id).
		Update("state", models.StateStarted).Error)
	_, err = svc.Config(id, "codex", "false")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLobbiesAndRecentGames(t *testing.T) {
	svc := NewSessionService(newTestDB(t), testLogger())

	_, err := svc.Lobbies()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Lobby("Open One", "p1", "Alice")
	require.NoError(t, err)

	msg, err := svc.Lobbies()
	require.NoError(t, err)
	assert.Contains(t, msg, "Open One")
	assert.Contains(t, msg, "1 player(s)")

	finished := seedSession(t, svc.DB, models.StateFinished, models.SessionSettings{}, []string{"Winner", "Loser"})
	require.NoError(t, svc.DB.Model(&models.SessionPlayer{}).
		Where("session_id = ? AND player_id = ?", finished.ID, "player-1").
		Updates(map[string]any{"points": 10, "faction": "The Arborec"}).Error)

	msg, err = svc.RecentGames(5)
	require.NoError(t, err)
	assert.Contains(t, msg, "Winner Winner (The Arborec)")
}
