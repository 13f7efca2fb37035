package services

import (
	"strings"
	"testing"

	"draft-session-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func startedSession(t *testing.T, db *gorm.DB) *models.Session {
	t.Helper()
	session := seedSession(t, db, models.StateStarted, models.SessionSettings{}, []string{"Alice", "Bob", "Carol"})
	factions := []string{"The Arborec", "The Winnu", "The Nekro Virus"}
	for i := range session.Players {
		require.NoError(t, db.Model(&models.SessionPlayer{}).
			Where("session_id = ? AND player_id = ?", session.ID, session.Players[i].PlayerID).
			Update("faction", factions[session.Players[i].TurnOrder]).Error)
	}
	return session
}

func TestFinishRecordsPointsInTurnOrder(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMatchService(db, pub, testLogger())
	session := startedSession(t, db)

	msg, err := svc.Finish(false, session.ID, "10 5 7")
	require.NoError(t, err)
	assert.Contains(t, msg, "Session 'Test Session' has finished")
	assert.Contains(t, msg, "1. Alice played The Arborec and finished with 10 point(s)")
	assert.Contains(t, msg, "2. Carol played The Nekro Virus and finished with 7 point(s)")
	assert.Contains(t, msg, "3. Bob played The Winnu and finished with 5 point(s)")

	reloaded, err := loadSession(db, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, reloaded.State)
	require.NotNil(t, reloaded.FinishedAt)

	require.Len(t, pub.events, 1)
	assert.Equal(t, session.ID, pub.events[0].SessionID)
}

func TestFinishWithoutPointsListsPlayers(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMatchService(db, pub, testLogger())
	session := startedSession(t, db)

	_, err := svc.Finish(false, session.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), strings.Join([]string{"Alice", "Bob", "Carol"}, "\n"))
	assert.Empty(t, pub.events)
}

func TestFinishRejectsPointCountMismatch(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMatchService(db, pub, testLogger())
	session := startedSession(t, db)

	_, err := svc.Finish(false, session.ID, "10 5")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "got 2 point values for 3 players")

	reloaded, err := loadSession(db, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateStarted, reloaded.State)
	assert.Empty(t, pub.events)
}

func TestFinishStateGating(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMatchService(db, pub, testLogger())

	lobby := seedSession(t, db, models.StateLobby, models.SessionSettings{}, []string{"Alice", "Bob"})
	_, err := svc.Finish(false, lobby.ID, "1 2")
	assert.ErrorIs(t, err, ErrInvalidState)

	session := startedSession(t, db)
	_, err = svc.Finish(false, session.ID, "10 5 7")
	require.NoError(t, err)

	// Only admins may correct a finished result.
	_, err = svc.Finish(false, session.ID, "3 2 1")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Finish(true, session.ID, "3 2 1")
	require.NoError(t, err)

	reloaded, err := loadSession(db, session.ID)
	require.NoError(t, err)
	alice := seatByTurn(t, db, session.ID, 0)
	assert.Equal(t, 3, alice.Points)
	assert.Equal(t, models.StateFinished, reloaded.State)
	assert.Len(t, pub.events, 2)
}

func TestFinishAcceptsFreeTextPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchService(db, &recordingPublisher{}, testLogger())
	session := startedSession(t, db)

	msg, err := svc.Finish(false, session.ID, "10, 5 and 7")
	require.NoError(t, err)
	assert.Contains(t, msg, "finished with 10 point(s)")
}
