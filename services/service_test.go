package services

import (
	"fmt"
	"strings"
	"testing"

	"draft-session-system/models"
	"draft-session-system/refdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Player{},
		&models.Session{},
		&models.SessionPlayer{},
		&models.SessionSettings{},
		&models.MatchPlayer{},
		&models.OutcomeLedger{},
	))
	return db
}

// testCatalog is a fixed catalog so tests never depend on the embedded
// reference data changing.
func testCatalog() *refdata.Catalog {
	factions := []refdata.Faction{
		{Name: "The Arborec", Source: "Base Game"},
		{Name: "The Barony of Letnev", Source: "Base Game"},
		{Name: "The Clan of Saar", Source: "Base Game"},
		{Name: "The Embers of Muaat", Source: "Base Game"},
		{Name: "The Emirates of Hacan", Source: "Base Game"},
		{Name: "The Federation of Sol", Source: "Base Game"},
		{Name: "The Ghosts of Creuss", Source: "Base Game"},
		{Name: "The L1Z1X Mindnet", Source: "Base Game"},
		{Name: "The Mentak Coalition", Source: "Base Game"},
		{Name: "The Naalu Collective", Source: "Base Game"},
		{Name: "The Nekro Virus", Source: "Base Game"},
		{Name: "The Sardakk N'orr", Source: "Base Game"},
		{Name: "The Universities of Jol-Nar", Source: "Base Game"},
		{Name: "The Winnu", Source: "Base Game"},
		{Name: "The Xxcha Kingdom", Source: "Base Game"},
		{Name: "The Yin Brotherhood", Source: "Base Game"},
		{Name: "The Yssaril Tribes", Source: "Base Game"},
		{Name: "The Argent Flight", Source: "Prophecy of Kings"},
		{Name: "The Empyrean", Source: "Prophecy of Kings"},
		{Name: "The Mahact Gene-Sorcerers", Source: "Prophecy of Kings"},
	}
	cards := []refdata.StrategyCard{
		{Initiative: 1, Name: "Leadership"},
		{Initiative: 2, Name: "Diplomacy"},
		{Initiative: 3, Name: "Politics"},
		{Initiative: 4, Name: "Construction"},
		{Initiative: 5, Name: "Trade"},
		{Initiative: 6, Name: "Warfare"},
		{Initiative: 7, Name: "Technology"},
		{Initiative: 8, Name: "Imperial"},
	}
	return refdata.NewCatalog(factions, cards)
}

// seedSession creates a session with one seat per name, turn order
// following the given name order.
func seedSession(t *testing.T, db *gorm.DB, state models.SessionState, settings models.SessionSettings, names []string) *models.Session {
	t.Helper()
	session := models.Session{
		ID:    uuid.NewString(),
		Name:  "Test Session",
		Slug:  "test-session",
		State: state,
	}
	require.NoError(t, db.Create(&session).Error)

	settings.SessionID = session.ID
	if settings.FactionsPerPlayer == 0 {
		settings.FactionsPerPlayer = 3
	}
	if settings.BansPerPlayer == 0 {
		settings.BansPerPlayer = 1
	}
	require.NoError(t, db.Create(&settings).Error)

	for i, name := range names {
		id := fmt.Sprintf("player-%d", i+1)
		require.NoError(t, upsertPlayer(db, id, name))
		require.NoError(t, db.Create(&models.SessionPlayer{
			SessionID: session.ID,
			PlayerID:  id,
			TurnOrder: i,
		}).Error)
	}

	loaded, err := loadSession(db, session.ID)
	require.NoError(t, err)
	return loaded
}

// seatByTurn reloads the session and returns the seat at the given turn
// order.
func seatByTurn(t *testing.T, db *gorm.DB, sessionID string, turn int) *models.SessionPlayer {
	t.Helper()
	session, err := loadSession(db, sessionID)
	require.NoError(t, err)
	for i := range session.Players {
		if session.Players[i].TurnOrder == turn {
			return &session.Players[i]
		}
	}
	t.Fatalf("no seat with turn order %d", turn)
	return nil
}

type recordingPublisher struct {
	events []MatchFinished
}

func (p *recordingPublisher) PublishMatchFinished(event MatchFinished) {
	p.events = append(p.events, event)
}

func testLogger() *zap.Logger { return zap.NewNop() }
