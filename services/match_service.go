package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"draft-session-system/models"
	"draft-session-system/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MatchService validates and applies end-of-match scoring. A successful
// finish commits the FINISHED transition first and only then publishes
// MatchFinished, so a subscriber failure can never corrupt the session.
type MatchService struct {
	DB        *gorm.DB
	Log       *zap.Logger
	Publisher Publisher
}

func NewMatchService(db *gorm.DB, publisher Publisher, log *zap.Logger) *MatchService {
	return &MatchService{DB: db, Log: log, Publisher: publisher}
}

// Finish records the final points for a STARTED session, ordered by turn
// order. Admins may re-finish an already FINISHED session to correct a
// mistake; nobody else can finish anything that is not STARTED. A points
// count that does not match the roster is rejected outright.
func (s *MatchService) Finish(isAdmin bool, sessionID, pointsText string) (string, error) {
	var msg string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}

		switch {
		case isAdmin && session.State == models.StateFinished:
			// Admin correction of a finished session.
		case session.State != models.StateStarted:
			return fmt.Errorf("can't finish session, session is in %s state: %w",
				session.State, ErrInvalidState)
		}

		seats := playersByTurn(session)
		var order []string
		for _, seat := range seats {
			order = append(order, seat.Player.Name)
		}

		if pointsText == "" {
			return fmt.Errorf("players:\n%s\n\nspecify the points in player order, e.g. finish 2 10 gives the first player 2 points and the second 10: %w",
				strings.Join(order, "\n"), ErrInvalidInput)
		}

		points := utils.ParseInts(pointsText)
		if len(points) != len(seats) {
			return fmt.Errorf("got %d point values for %d players, supply one per player in this order:\n%s: %w",
				len(points), len(seats), strings.Join(order, "\n"), ErrInvalidInput)
		}

		for i, seat := range seats {
			seat.Points = points[i]
		}
		now := time.Now()
		session.State = models.StateFinished
		session.FinishedAt = &now
		if err := saveRoster(tx, session); err != nil {
			return err
		}

		msg = endMessage(session)
		return nil
	})
	if err != nil {
		if !isDomainErr(err) {
			s.Log.Error("finish failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return "", err
	}

	// Published only after the transaction committed.
	s.Publisher.PublishMatchFinished(MatchFinished{SessionID: sessionID})
	return msg, nil
}

// endMessage renders the final standing, points descending. Ties keep
// store order; no explicit tie-break.
func endMessage(session *models.Session) string {
	standings := make([]*models.SessionPlayer, 0, len(session.Players))
	for i := range session.Players {
		standings = append(standings, &session.Players[i])
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points > standings[j].Points
	})

	lines := []string{fmt.Sprintf("Session '%s' has finished", session.Name), "", "Players:"}
	for i, seat := range standings {
		lines = append(lines, fmt.Sprintf("%d. %s played %s and finished with %d point(s)",
			i+1, seat.Player.Name, seat.Faction, seat.Points))
	}
	lines = append(lines, "", "Wrong result? Rerun the finish command.")
	return strings.Join(lines, "\n")
}
