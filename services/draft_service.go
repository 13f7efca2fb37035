package services

import (
	"errors"
	"fmt"
	"strings"

	"draft-session-system/models"
	"draft-session-system/refdata"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftService routes start/draft/ban calls to the drafting strategy the
// session is configured with. The Draft→Started transition is performed
// here, once, when a strategy reports completion, so no strategy carries
// its own copy of it.
type DraftService struct {
	DB      *gorm.DB
	Catalog *refdata.Catalog
	Log     *zap.Logger
}

func NewDraftService(db *gorm.DB, catalog *refdata.Catalog, log *zap.Logger) *DraftService {
	return &DraftService{DB: db, Catalog: catalog, Log: log}
}

// isDomainErr reports whether err is an expected, user-facing failure.
// Anything else is a fault worth logging.
func isDomainErr(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrInvalidState, ErrNotYourTurn, ErrAlreadyComplete,
		ErrNoMatch, ErrCapacityExceeded, ErrUnsupported, ErrInvalidInput,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Start allocates pools and turn order for an open lobby and moves it
// into its mode's first phase (BAN or DRAFT).
func (s *DraftService) Start(sessionID string) (string, error) {
	var summary string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := findLobby(tx, sessionID)
		if err != nil {
			return err
		}
		mode, err := modeFor(session.Settings.DraftingMode, s.Catalog)
		if err != nil {
			return err
		}
		summary, err = mode.Start(tx, session, s.Catalog)
		return err
	})
	if err != nil {
		if !isDomainErr(err) {
			s.Log.Error("start failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return "", err
	}
	return summary, nil
}

// Draft resolves a player's pick (or, with an empty choice, renders their
// options). When the pick completes the draft, the session transitions to
// STARTED and the launch announcement is appended.
func (s *DraftService) Draft(sessionID, playerID, choice string) (string, error) {
	var msg string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.State != models.StateDraft {
			return fmt.Errorf("session is not in the draft stage: %w", ErrInvalidState)
		}
		seat := playerInSession(session, playerID)
		if seat == nil {
			return fmt.Errorf("you are not in this session: %w", ErrNotFound)
		}

		mode, err := modeFor(session.Settings.DraftingMode, s.Catalog)
		if err != nil {
			return err
		}
		outcome, err := mode.Draft(tx, session, seat, choice)
		if err != nil {
			return err
		}

		msg = outcome.Message
		if outcome.Complete {
			launch, err := s.launch(tx, session)
			if err != nil {
				return err
			}
			msg += "\n\n" + launch
		}
		return nil
	})
	if err != nil {
		if !isDomainErr(err) {
			s.Log.Error("draft failed",
				zap.String("session_id", sessionID),
				zap.String("player_id", playerID),
				zap.Error(err))
		}
		return "", err
	}
	return msg, nil
}

// Ban forwards a ban to the active strategy; modes without a ban phase
// reject it as unsupported.
func (s *DraftService) Ban(sessionID, playerID, choice string) (string, error) {
	var msg string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.State != models.StateBan {
			return fmt.Errorf("session is not in the ban stage: %w", ErrInvalidState)
		}
		seat := playerInSession(session, playerID)
		if seat == nil {
			return fmt.Errorf("you are not in this session: %w", ErrNotFound)
		}

		mode, err := modeFor(session.Settings.DraftingMode, s.Catalog)
		if err != nil {
			return err
		}
		msg, err = mode.Ban(tx, session, seat, choice)
		return err
	})
	if err != nil {
		if !isDomainErr(err) {
			s.Log.Error("ban failed",
				zap.String("session_id", sessionID),
				zap.String("player_id", playerID),
				zap.Error(err))
		}
		return "", err
	}
	return msg, nil
}

// launch flips a completed draft to STARTED and composes the launch
// announcement.
func (s *DraftService) launch(tx *gorm.DB, session *models.Session) (string, error) {
	session.State = models.StateStarted
	if err := tx.Omit(clause.Associations).Save(session).Error; err != nil {
		return "", err
	}

	lines := []string{fmt.Sprintf("Session '%s' has started", session.Name), "", "Players:"}
	for _, seat := range playersByTurn(session) {
		entry := fmt.Sprintf("%s playing %s", seat.Player.Name, seat.Faction)
		if seat.StrategyCard != "" {
			entry += fmt.Sprintf(", %s", seat.StrategyCard)
		}
		if seat.Position != 0 {
			entry += fmt.Sprintf(", seat %d", seat.Position)
		}
		lines = append(lines, entry)
	}
	return strings.Join(lines, "\n"), nil
}
