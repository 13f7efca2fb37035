package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"draft-session-system/models"
	"draft-session-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionService owns the lobby side of the session lifecycle: creation,
// roster changes, configuration and read views. All gameplay transitions
// live in DraftService and MatchService.
type SessionService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewSessionService(db *gorm.DB, log *zap.Logger) *SessionService {
	return &SessionService{DB: db, Log: log}
}

// Lobby creates a new session in LOBBY state with the creator as the
// first roster member.
func (s *SessionService) Lobby(name, playerID, playerName string) (string, error) {
	session := models.Session{
		ID:    uuid.NewString(),
		Name:  name,
		Slug:  slug.Make(name),
		State: models.StateLobby,
		Settings: &models.SessionSettings{
			DraftingMode:      models.ModeExclusivePool,
			BaseGame:          true,
			FactionsPerPlayer: 3,
			BansPerPlayer:     1,
		},
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		if err := upsertPlayer(tx, playerID, playerName); err != nil {
			return err
		}
		return tx.Create(&models.SessionPlayer{
			SessionID: session.ID,
			PlayerID:  playerID,
		}).Error
	})
	if err != nil {
		s.Log.Error("create lobby failed", zap.String("name", name), zap.Error(err))
		return "", err
	}

	lines := []string{
		fmt.Sprintf("Session lobby '%s' created (id %s)", session.Name, session.ID),
		"Join to enter the session, then start to begin drafting.",
		fmt.Sprintf("Players: %s.", playerName),
		"Configure the session with the config command. Good luck!",
	}
	return strings.Join(lines, "\n"), nil
}

// Join adds a player to an open lobby. Rejected when the session is past
// LOBBY, the roster is full, or the player is already seated.
func (s *SessionService) Join(sessionID, playerID, playerName string) (string, error) {
	var count int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := findLobby(tx, sessionID)
		if err != nil {
			return err
		}
		if playerInSession(session, playerID) != nil {
			return fmt.Errorf("you are already in this lobby: %w", ErrAlreadyComplete)
		}
		if len(session.Players) >= models.MaxPlayers {
			return fmt.Errorf("player limit reached, %d have joined the session: %w",
				len(session.Players), ErrCapacityExceeded)
		}
		if err := upsertPlayer(tx, playerID, playerName); err != nil {
			return err
		}
		count = len(session.Players) + 1
		return tx.Create(&models.SessionPlayer{
			SessionID: session.ID,
			PlayerID:  playerID,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s has joined the lobby. Current number of players is %d.", playerName, count), nil
}

// Leave removes a player from an open lobby. Removing the last player
// leaves an empty, still-open lobby for an operator to cancel.
func (s *SessionService) Leave(sessionID, playerID string) (string, error) {
	var msg string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := findLobby(tx, sessionID)
		if err != nil {
			return err
		}
		seat := playerInSession(session, playerID)
		if seat == nil {
			return fmt.Errorf("you are not in this session: %w", ErrNotFound)
		}
		if err := tx.Delete(&models.SessionPlayer{}, "session_id = ? AND player_id = ?", sessionID, playerID).Error; err != nil {
			return err
		}
		remaining := len(session.Players) - 1
		if remaining == 0 {
			msg = "All players have left the lobby. An operator can cancel it."
		} else {
			msg = fmt.Sprintf("%s has left the lobby. Current number of players is %d.", seat.Player.Name, remaining)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return msg, nil
}

// Cancel deletes a session and everything it owns. Finished sessions are
// part of the match history and cannot be cancelled.
func (s *SessionService) Cancel(sessionID string) (string, error) {
	var name string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.State == models.StateFinished {
			return fmt.Errorf("session has already finished: %w", ErrInvalidState)
		}
		name = session.Name
		return tx.Select(clause.Associations).Delete(session).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully deleted %s", name), nil
}

// Get renders one session: state, roster, and current configuration.
func (s *SessionService) Get(sessionID string) (string, error) {
	session, err := loadSession(s.DB, sessionID)
	if err != nil {
		return "", err
	}

	lines := []string{
		session.Name,
		fmt.Sprintf("Session state: %s", session.State),
	}
	if len(session.Players) > 0 {
		lines = append(lines, "", "Players:")
		for _, p := range session.Players {
			entry := p.Player.Name
			if p.Faction != "" {
				entry += fmt.Sprintf(" Faction: %s", p.Faction)
			}
			if p.Points != 0 {
				entry += fmt.Sprintf(" Points: %d", p.Points)
			}
			lines = append(lines, entry)
		}
	}
	if view, err := s.Config(sessionID, "", ""); err == nil {
		lines = append(lines, "", view)
	}
	return strings.Join(lines, "\n"), nil
}

// Lobbies lists open lobbies, newest first.
func (s *SessionService) Lobbies() (string, error) {
	var sessions []models.Session
	err := s.DB.Preload("Players").
		Where("state = ?", models.StateLobby).
		Order("lobby_created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no open lobbies: %w", ErrNotFound)
	}
	lines := []string{"Open lobbies:"}
	for _, session := range sessions {
		lines = append(lines, fmt.Sprintf("- %s (%s). %d player(s).", session.Name, session.ID, len(session.Players)))
	}
	return strings.Join(lines, "\n"), nil
}

// RecentGames lists the most recently finished sessions with their
// winners, the session's highest-point player.
func (s *SessionService) RecentGames(limit int) (string, error) {
	var sessions []models.Session
	err := s.DB.Preload("Players.Player").
		Where("state = ?", models.StateFinished).
		Order("finished_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no finished sessions: %w", ErrNotFound)
	}
	var lines []string
	for _, session := range sessions {
		winner := sessionWinner(&session)
		if winner == nil {
			lines = append(lines, fmt.Sprintf("%s. Winner unknown", session.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s. Winner %s (%s)", session.Name, winner.Player.Name, winner.Faction))
	}
	return strings.Join(lines, "\n"), nil
}

// settingKind drives value coercion in Config.
type settingKind int

const (
	kindMode settingKind = iota
	kindBool
	kindInt
)

type settingProp struct {
	name string
	kind settingKind
	get  func(*models.SessionSettings) string
	set  func(*models.SessionSettings, string) error
}

// intSettingRange bounds the integer settings, matching the values the
// lobby configuration offers.
const (
	intSettingMin = 1
	intSettingMax = 5
)

func settingProps() []settingProp {
	boolProp := func(name string, get func(*models.SessionSettings) *bool) settingProp {
		return settingProp{
			name: name,
			kind: kindBool,
			get:  func(gs *models.SessionSettings) string { return strconv.FormatBool(*get(gs)) },
			set: func(gs *models.SessionSettings, v string) error {
				b, err := parseBoolWord(v)
				if err != nil {
					return err
				}
				*get(gs) = b
				return nil
			},
		}
	}
	intProp := func(name string, get func(*models.SessionSettings) *int) settingProp {
		return settingProp{
			name: name,
			kind: kindInt,
			get:  func(gs *models.SessionSettings) string { return strconv.Itoa(*get(gs)) },
			set: func(gs *models.SessionSettings, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("supply a valid integer value: %w", ErrInvalidInput)
				}
				if n < intSettingMin || n > intSettingMax {
					return fmt.Errorf("value must be between %d and %d: %w", intSettingMin, intSettingMax, ErrInvalidInput)
				}
				*get(gs) = n
				return nil
			},
		}
	}

	return []settingProp{
		{
			name: "drafting_mode",
			kind: kindMode,
			get:  func(gs *models.SessionSettings) string { return string(gs.DraftingMode) },
			set: func(gs *models.SessionSettings, v string) error {
				var names []string
				for _, m := range models.DraftingModes {
					names = append(names, string(m))
				}
				best, ok := utils.ClosestMatch(v, names)
				if !ok {
					return fmt.Errorf("valid values are %s: %w", strings.Join(names, ", "), ErrNoMatch)
				}
				gs.DraftingMode = models.DraftingMode(best)
				return nil
			},
		},
		boolProp("base_game", func(gs *models.SessionSettings) *bool { return &gs.BaseGame }),
		boolProp("prophecy_of_kings", func(gs *models.SessionSettings) *bool { return &gs.ProphecyOfKings }),
		boolProp("discordant_stars", func(gs *models.SessionSettings) *bool { return &gs.DiscordantStars }),
		boolProp("codex", func(gs *models.SessionSettings) *bool { return &gs.Codex }),
		intProp("factions_per_player", func(gs *models.SessionSettings) *int { return &gs.FactionsPerPlayer }),
		intProp("bans_per_player", func(gs *models.SessionSettings) *int { return &gs.BansPerPlayer }),
	}
}

func parseBoolWord(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("supply a boolean value: %w", ErrInvalidInput)
}

// Config shows or updates session settings. With no property or value it
// renders the configuration view; updates are permitted only in LOBBY.
// Property names and enum values are resolved fuzzily so typos still land.
func (s *SessionService) Config(sessionID, property, value string) (string, error) {
	props := settingProps()

	if property == "" || value == "" {
		session, err := loadSession(s.DB, sessionID)
		if err != nil {
			return "", err
		}
		return renderConfig(props, session.Settings), nil
	}

	var msg string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.State != models.StateLobby {
			return fmt.Errorf("session is not in lobby, config is frozen: %w", ErrInvalidState)
		}

		var names []string
		for _, p := range props {
			names = append(names, p.name)
		}
		best, ok := utils.ClosestMatch(property, names)
		if !ok {
			return fmt.Errorf("cannot tell which property you mean, check your spelling: %w", ErrNoMatch)
		}

		var prop settingProp
		for _, p := range props {
			if p.name == best {
				prop = p
			}
		}
		if err := prop.set(session.Settings, value); err != nil {
			return err
		}
		if err := tx.Save(session.Settings).Error; err != nil {
			return err
		}
		msg = fmt.Sprintf("Set property '%s' to '%s'", prop.name, prop.get(session.Settings))
		return nil
	})
	if err != nil {
		return "", err
	}
	return msg, nil
}

func renderConfig(props []settingProp, settings *models.SessionSettings) string {
	lines := []string{
		"Configuration:",
		"Use config factions_per_player 5 to update a setting for example.",
	}
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("* %s:", p.name))
		current := p.get(settings)
		switch p.kind {
		case kindMode:
			for _, m := range models.DraftingModes {
				if string(m) == current {
					lines = append(lines, fmt.Sprintf("  - **%s**", m))
				} else {
					lines = append(lines, fmt.Sprintf("  - %s", m))
				}
			}
		case kindBool:
			for _, v := range []string{"true", "false"} {
				if v == current {
					lines = append(lines, fmt.Sprintf("  - **%s**", v))
				} else {
					lines = append(lines, fmt.Sprintf("  - %s", v))
				}
			}
		default:
			lines = append(lines, fmt.Sprintf("  - **%s**", current))
		}
	}
	return strings.Join(lines, "\n")
}

// upsertPlayer refreshes the global player row so display names follow
// the most recent sighting.
func upsertPlayer(tx *gorm.DB, playerID, playerName string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&models.Player{ID: playerID, Name: playerName}).Error
}

// loadSession fetches a session with its roster (player identities
// included) and settings.
func loadSession(tx *gorm.DB, sessionID string) (*models.Session, error) {
	var session models.Session
	err := tx.Preload("Players.Player").Preload("Settings").
		First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no session found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func findLobby(tx *gorm.DB, sessionID string) (*models.Session, error) {
	session, err := loadSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.StateLobby {
		return nil, fmt.Errorf("session is not a lobby: %w", ErrInvalidState)
	}
	return session, nil
}

func playerInSession(session *models.Session, playerID string) *models.SessionPlayer {
	for i := range session.Players {
		if session.Players[i].PlayerID == playerID {
			return &session.Players[i]
		}
	}
	return nil
}

// sessionWinner is the highest-point seat; ties fall to store order.
func sessionWinner(session *models.Session) *models.SessionPlayer {
	var winner *models.SessionPlayer
	for i := range session.Players {
		if winner == nil || session.Players[i].Points > winner.Points {
			winner = &session.Players[i]
		}
	}
	return winner
}
