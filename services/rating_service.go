package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"draft-session-system/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// ratingK bounds the size of a single match's rating movement.
	ratingK = 50
	// ratingScale is the Elo logistic scale constant.
	ratingScale = 400
)

// RatingService maintains per-player skill ratings from finished matches.
// Every update is guarded by the outcome ledger, which makes both live
// event handling and full-history replay idempotent.
type RatingService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewRatingService(db *gorm.DB, log *zap.Logger) *RatingService {
	return &RatingService{DB: db, Log: log}
}

// HandleMatchFinished is the event-bus subscriber. A session that is not
// actually finished (or no longer exists) is ignored.
func (s *RatingService) HandleMatchFinished(event MatchFinished) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Preload("Players.Player").
			First(&session, "id = ? AND state = ?", event.SessionID, models.StateFinished).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.updateSessionRating(tx, &session)
	})
	if err != nil {
		s.Log.Error("rating update failed", zap.String("session_id", event.SessionID), zap.Error(err))
	}
}

// Replay rebuilds ratings from the full match log, oldest finish first.
// Already-applied (session, player) outcomes are skipped via the ledger,
// so replay can run at any time, as often as wanted.
func (s *RatingService) Replay() error {
	var sessions []models.Session
	err := s.DB.Preload("Players.Player").
		Where("state = ?", models.StateFinished).
		Order("finished_at ASC").
		Find(&sessions).Error
	if err != nil {
		return err
	}
	for i := range sessions {
		session := &sessions[i]
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			return s.updateSessionRating(tx, session)
		})
		if err != nil {
			return fmt.Errorf("replay session %s: %w", session.ID, err)
		}
	}
	return nil
}

// expectations returns the expected scores of a against b and b against a.
func expectations(a, b float64) (float64, float64) {
	eAB := 1 / (1 + math.Pow(10, (a-b)/ratingScale))
	return eAB, 1 - eAB
}

func matchPlayerFor(tx *gorm.DB, seat *models.SessionPlayer) (*models.MatchPlayer, error) {
	var mp models.MatchPlayer
	err := tx.First(&mp, "player_id = ?", seat.PlayerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mp = models.MatchPlayer{
			PlayerID: seat.PlayerID,
			Name:     seat.Player.Name,
			Rating:   models.DefaultRating,
		}
		if err := tx.Create(&mp).Error; err != nil {
			return nil, err
		}
		return &mp, nil
	}
	if err != nil {
		return nil, err
	}
	return &mp, nil
}

// updateSessionRating applies one finished match: every unordered pair of
// participants is compared, each player accumulates (score - expected)
// terms, and the final delta is the term average scaled by K. Matches
// with at most one distinct participant carry no comparative information
// and are skipped entirely.
func (s *RatingService) updateSessionRating(tx *gorm.DB, session *models.Session) error {
	deltas := make(map[string][]float64)
	players := session.Players
	for i := range players {
		for j := i + 1; j < len(players); j++ {
			a, err := matchPlayerFor(tx, &players[i])
			if err != nil {
				return err
			}
			b, err := matchPlayerFor(tx, &players[j])
			if err != nil {
				return err
			}

			eAB, eBA := expectations(a.Rating, b.Rating)
			switch {
			case players[i].Points < players[j].Points:
				deltas[a.PlayerID] = append(deltas[a.PlayerID], 0-eAB)
				deltas[b.PlayerID] = append(deltas[b.PlayerID], 1-eBA)
			case players[i].Points > players[j].Points:
				deltas[a.PlayerID] = append(deltas[a.PlayerID], 1-eAB)
				deltas[b.PlayerID] = append(deltas[b.PlayerID], 0-eBA)
			default:
				deltas[a.PlayerID] = append(deltas[a.PlayerID], 0.5-eAB)
				deltas[b.PlayerID] = append(deltas[b.PlayerID], 0.5-eBA)
			}
		}
	}

	if len(deltas) <= 1 {
		// Solo match, nothing to compare against.
		return nil
	}

	matchTime := time.Now()
	if session.FinishedAt != nil {
		matchTime = *session.FinishedAt
	}

	for i := range players {
		seat := &players[i]

		var existing models.OutcomeLedger
		err := tx.First(&existing, "session_id = ? AND player_id = ?", session.ID, seat.PlayerID).Error
		if err == nil {
			// Already applied for this match.
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		mp, err := matchPlayerFor(tx, seat)
		if err != nil {
			return err
		}

		sum := 0.0
		for _, term := range deltas[seat.PlayerID] {
			sum += term
		}
		delta := sum / float64(len(deltas)-1) * ratingK

		entry := models.OutcomeLedger{
			SessionID:    session.ID,
			PlayerID:     seat.PlayerID,
			MatchTime:    matchTime,
			RatingBefore: mp.Rating,
			RatingDelta:  delta,
			RatingAfter:  mp.Rating + delta,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		mp.Rating += delta
		if err := tx.Save(mp).Error; err != nil {
			return err
		}
	}
	return nil
}

// RankedPlayers returns every rated player, best rating first.
func (s *RatingService) RankedPlayers() ([]models.MatchPlayer, error) {
	var players []models.MatchPlayer
	if err := s.DB.Order("rating DESC").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

// Ratings renders the full leaderboard.
func (s *RatingService) Ratings() (string, error) {
	players, err := s.RankedPlayers()
	if err != nil {
		return "", err
	}
	if len(players) == 0 {
		return "", fmt.Errorf("no rated players yet: %w", ErrNotFound)
	}
	var lines []string
	for _, p := range players {
		lines = append(lines, fmt.Sprintf("%s: rating %.2f", p.Name, p.Rating))
	}
	return strings.Join(lines, "\n"), nil
}

// PlayerProfile is the stats answer for one player.
type PlayerProfile struct {
	PlayerID      string         `json:"player_id"`
	Name          string         `json:"name"`
	Rating        float64        `json:"rating"`
	GamesPlayed   int            `json:"games_played"`
	Wins          int            `json:"wins"`
	TopFactions   []FactionCount `json:"top_factions"`
	AveragePoints float64        `json:"average_points"`
}

type FactionCount struct {
	Faction string `json:"faction"`
	Count   int    `json:"count"`
}

// Stats builds a player's profile: rating, games played, wins (finishing
// with the match's maximum points counts as a win), the three most-played
// factions and average points per game.
func (s *RatingService) Stats(playerID string) (*PlayerProfile, error) {
	var mp models.MatchPlayer
	err := s.DB.First(&mp, "player_id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no rated games for this player yet: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	err = s.DB.Preload("Players").
		Where("state = ? AND id IN (?)", models.StateFinished,
			s.DB.Model(&models.SessionPlayer{}).Select("session_id").Where("player_id = ?", playerID)).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	profile := &PlayerProfile{PlayerID: mp.PlayerID, Name: mp.Name, Rating: mp.Rating}
	factionCounts := make(map[string]int)
	totalPoints := 0

	for i := range sessions {
		session := &sessions[i]
		seat := playerInSession(session, playerID)
		if seat == nil {
			continue
		}
		profile.GamesPlayed++
		totalPoints += seat.Points
		if seat.Faction != "" {
			factionCounts[seat.Faction]++
		}

		maxPoints := seat.Points
		for j := range session.Players {
			if session.Players[j].Points > maxPoints {
				maxPoints = session.Players[j].Points
			}
		}
		if seat.Points == maxPoints {
			profile.Wins++
		}
	}

	if profile.GamesPlayed > 0 {
		profile.AveragePoints = float64(totalPoints) / float64(profile.GamesPlayed)
	}

	for faction, count := range factionCounts {
		profile.TopFactions = append(profile.TopFactions, FactionCount{Faction: faction, Count: count})
	}
	sort.SliceStable(profile.TopFactions, func(i, j int) bool {
		if profile.TopFactions[i].Count != profile.TopFactions[j].Count {
			return profile.TopFactions[i].Count > profile.TopFactions[j].Count
		}
		return profile.TopFactions[i].Faction < profile.TopFactions[j].Faction
	})
	if len(profile.TopFactions) > 3 {
		profile.TopFactions = profile.TopFactions[:3]
	}
	return profile, nil
}
