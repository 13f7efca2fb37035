package services

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"draft-session-system/models"
	"draft-session-system/refdata"
	"draft-session-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// draftOutcome is the result of a committed pick. Complete means every
// player has all resources the mode requires; the coordinator, not the
// mode, performs the Draft→Started transition when it sees Complete.
type draftOutcome struct {
	Message  string
	Complete bool
}

// draftMode is the capability set of one drafting variant. Draft and Ban
// with an empty choice render the caller's options without mutating
// anything.
type draftMode interface {
	Start(tx *gorm.DB, session *models.Session, catalog *refdata.Catalog) (string, error)
	Draft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (draftOutcome, error)
	Ban(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (string, error)
}

// modeFor maps the configured drafting mode to its implementation.
func modeFor(mode models.DraftingMode, catalog *refdata.Catalog) (draftMode, error) {
	switch mode {
	case models.ModeExclusivePool:
		return exclusivePool{}, nil
	case models.ModePicksOnly:
		return picksOnly{}, nil
	case models.ModePicksAndBans:
		return picksAndBans{}, nil
	case models.ModeHomebrewDraft:
		return homebrewDraft{catalog: catalog}, nil
	}
	return nil, fmt.Errorf("drafting mode %s is not supported: %w", mode, ErrUnsupported)
}

// noBans is embedded by modes without a ban phase.
type noBans struct{}

func (noBans) Ban(_ *gorm.DB, session *models.Session, _ *models.SessionPlayer, _ string) (string, error) {
	return "", fmt.Errorf("drafting mode %s does not support bans: %w",
		session.Settings.DraftingMode, ErrUnsupported)
}

// startSettings renders the enabled source pools as human-readable labels
// and as the tokens the catalog filter understands.
func startSettings(settings *models.SessionSettings) (labels, tokens []string) {
	if settings.BaseGame {
		labels = append(labels, "Base game active")
		tokens = append(tokens, "base")
	}
	if settings.ProphecyOfKings {
		labels = append(labels, "Prophecy of Kings active")
		tokens = append(tokens, "pok")
	}
	if settings.DiscordantStars {
		labels = append(labels, "Discordant Stars active")
		tokens = append(tokens, "ds")
	}
	if settings.Codex {
		labels = append(labels, "Codex factions active")
		tokens = append(tokens, "codex")
	}
	return labels, tokens
}

// assignTurnOrder gives the roster a uniformly random permutation of
// [0, playerCount).
func assignTurnOrder(session *models.Session) {
	order := rand.Perm(len(session.Players))
	for i := range session.Players {
		session.Players[i].TurnOrder = order[i]
	}
}

// playersByTurn returns roster pointers sorted by turn order.
func playersByTurn(session *models.Session) []*models.SessionPlayer {
	seats := make([]*models.SessionPlayer, 0, len(session.Players))
	for i := range session.Players {
		seats = append(seats, &session.Players[i])
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].TurnOrder < seats[j].TurnOrder })
	return seats
}

// currentDrafter resolves the seat whose turn order equals the session's
// turn cursor. Resolving to no seat is a programming error, never a user
// condition.
func currentDrafter(session *models.Session) (*models.SessionPlayer, error) {
	for i := range session.Players {
		if session.Players[i].TurnOrder == session.Turn {
			return &session.Players[i], nil
		}
	}
	return nil, fmt.Errorf("no drafter found for turn %d in session %s", session.Turn, session.ID)
}

func saveRoster(tx *gorm.DB, session *models.Session) error {
	for i := range session.Players {
		if err := tx.Omit(clause.Associations).Save(&session.Players[i]).Error; err != nil {
			return err
		}
	}
	return tx.Omit(clause.Associations).Save(session).Error
}

// startSummary is the shared launch text of every mode's Start.
func startSummary(session *models.Session, labels []string, extra []string) (string, error) {
	var names []string
	for _, seat := range playersByTurn(session) {
		names = append(names, seat.Player.Name)
	}
	lines := []string{
		fmt.Sprintf("State: %s", session.State),
		"",
		"Players (in draft order):",
	}
	lines = append(lines, names...)
	lines = append(lines, "", "Settings:")
	lines = append(lines, labels...)
	lines = append(lines, extra...)

	drafter, err := currentDrafter(session)
	if err != nil {
		return "", err
	}
	verb := "drafting"
	if session.State == models.StateBan {
		verb = "banning"
	}
	lines = append(lines, "", fmt.Sprintf("%s begins %s.", drafter.Player.Name, verb))
	return strings.Join(lines, "\n"), nil
}

func notYourTurn(session *models.Session, action string) error {
	drafter, err := currentDrafter(session)
	if err != nil {
		return err
	}
	return fmt.Errorf("it is not your turn to %s, it is %s's turn: %w",
		action, drafter.Player.Name, ErrNotYourTurn)
}

// removeFromPools strips a faction from every seat's remaining pool.
func removeFromPools(session *models.Session, faction string) {
	for i := range session.Players {
		seat := &session.Players[i]
		for j, f := range seat.Factions {
			if f == faction {
				seat.Factions = append(seat.Factions[:j], seat.Factions[j+1:]...)
				break
			}
		}
	}
}

// exclusivePool deals each player a private, disjoint slice of the
// shuffled faction pool. Picks do not affect other players' pools.
type exclusivePool struct{ noBans }

func (exclusivePool) Start(tx *gorm.DB, session *models.Session, catalog *refdata.Catalog) (string, error) {
	labels, tokens := startSettings(session.Settings)
	n := len(session.Players)
	if n == 0 {
		return "", fmt.Errorf("the lobby has no players: %w", ErrInvalidInput)
	}

	perPlayer := session.Settings.FactionsPerPlayer
	pool := catalog.RandomFactionNames(n*perPlayer, tokens)
	if len(pool) < n*perPlayer {
		return "", fmt.Errorf("too many factions per player, max allowed for a %d player game is %d: %w",
			n, len(pool)/n, ErrCapacityExceeded)
	}

	assignTurnOrder(session)

	var factionLines []string
	for i := range session.Players {
		seat := &session.Players[i]
		seat.Factions = pool[i*perPlayer : (i+1)*perPlayer]
		for _, f := range seat.Factions {
			factionLines = append(factionLines, fmt.Sprintf("%s (%s)", f, seat.Player.Name))
		}
	}

	session.State = models.StateDraft
	if err := saveRoster(tx, session); err != nil {
		return "", err
	}

	extra := append([]string{"", "Factions:"}, factionLines...)
	return startSummary(session, labels, extra)
}

func (exclusivePool) Draft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (draftOutcome, error) {
	return sharedFactionDraft(tx, session, seat, choice, false)
}

// picksOnly gives everyone the same pool; a committed pick removes the
// faction from every other player's remaining options.
type picksOnly struct{ noBans }

func (picksOnly) Start(tx *gorm.DB, session *models.Session, catalog *refdata.Catalog) (string, error) {
	labels, tokens := startSettings(session.Settings)
	if len(session.Players) == 0 {
		return "", fmt.Errorf("the lobby has no players: %w", ErrInvalidInput)
	}

	assignTurnOrder(session)
	pool := catalog.FactionNames(tokens)
	for i := range session.Players {
		session.Players[i].Factions = append([]string(nil), pool...)
	}

	session.State = models.StateDraft
	if err := saveRoster(tx, session); err != nil {
		return "", err
	}
	return startSummary(session, labels, nil)
}

func (picksOnly) Draft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (draftOutcome, error) {
	return sharedFactionDraft(tx, session, seat, choice, true)
}

// sharedFactionDraft is the single-resource draft step common to
// ExclusivePool (private pools) and PicksOnly (shared pool with removal).
func sharedFactionDraft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string, removeFromOthers bool) (draftOutcome, error) {
	if seat.Faction != "" {
		return draftOutcome{}, fmt.Errorf("you have already drafted %s: %w", seat.Faction, ErrAlreadyComplete)
	}
	if choice == "" {
		return draftOutcome{
			Message: fmt.Sprintf("Your available factions are:\n%s", strings.Join(seat.Factions, "\n")),
		}, nil
	}
	if session.Turn != seat.TurnOrder {
		return draftOutcome{}, notYourTurn(session, "draft")
	}

	best, ok := utils.ClosestMatch(choice, seat.Factions)
	if !ok {
		return draftOutcome{}, fmt.Errorf("you can't draft faction %s, check your spelling or available factions: %w",
			choice, ErrNoMatch)
	}

	seat.Faction = best
	session.Turn++
	if removeFromOthers {
		removeFromPools(session, best)
	}
	if err := saveRoster(tx, session); err != nil {
		return draftOutcome{}, err
	}

	msg := fmt.Sprintf("%s has selected %s.", seat.Player.Name, best)
	if session.Turn == len(session.Players) {
		return draftOutcome{Message: msg, Complete: true}, nil
	}
	next, err := currentDrafter(session)
	if err != nil {
		return draftOutcome{}, err
	}
	return draftOutcome{Message: msg + fmt.Sprintf("\nNext drafter is %s.", next.Player.Name)}, nil
}

// picksAndBans runs a ban phase over a shared pool before a PicksOnly
// style draft. Ban turns wrap with modulo arithmetic; the phase flips to
// DRAFT exactly when playerCount*bansPerPlayer bans are recorded.
type picksAndBans struct{}

func (picksAndBans) Start(tx *gorm.DB, session *models.Session, catalog *refdata.Catalog) (string, error) {
	labels, tokens := startSettings(session.Settings)
	if len(session.Players) == 0 {
		return "", fmt.Errorf("the lobby has no players: %w", ErrInvalidInput)
	}

	assignTurnOrder(session)
	pool := catalog.FactionNames(tokens)
	for i := range session.Players {
		session.Players[i].Factions = append([]string(nil), pool...)
	}

	session.State = models.StateBan
	if err := saveRoster(tx, session); err != nil {
		return "", err
	}
	return startSummary(session, labels, nil)
}

func allBans(session *models.Session) []string {
	var bans []string
	for i := range session.Players {
		bans = append(bans, session.Players[i].Bans...)
	}
	return bans
}

func (picksAndBans) Ban(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (string, error) {
	drafter, err := currentDrafter(session)
	if err != nil {
		return "", err
	}
	banned := allBans(session)

	if choice == "" {
		lines := []string{fmt.Sprintf("It is %s's turn to ban.", drafter.Player.Name)}
		if len(banned) > 0 {
			lines = append(lines, "These factions are banned:")
			for _, f := range banned {
				lines = append(lines, fmt.Sprintf("* %s", f))
			}
		}
		return strings.Join(lines, "\n"), nil
	}

	if drafter.PlayerID != seat.PlayerID {
		return "", fmt.Errorf("it is not your turn to ban, it is %s's turn: %w",
			drafter.Player.Name, ErrNotYourTurn)
	}

	best, ok := utils.ClosestMatch(choice, seat.Factions)
	if !ok {
		return "", fmt.Errorf("you can't ban faction %s, check your spelling or available factions: %w",
			choice, ErrNoMatch)
	}
	for _, b := range banned {
		if b == best {
			return "", fmt.Errorf("faction %s has already been banned: %w", best, ErrAlreadyComplete)
		}
	}

	seat.Bans = append(seat.Bans, best)
	removeFromPools(session, best)

	n := len(session.Players)
	target := n * session.Settings.BansPerPlayer
	session.Turn = (session.Turn + 1) % n

	lines := []string{fmt.Sprintf("%s has banned %s.", seat.Player.Name, best)}

	if len(banned)+1 == target {
		session.State = models.StateDraft
		next, err := currentDrafter(session)
		if err != nil {
			return "", err
		}
		lines = append(lines, "Banning is now complete!",
			fmt.Sprintf("Next one to draft is %s.", next.Player.Name))
	} else {
		next, err := currentDrafter(session)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("Next one to ban is %s.", next.Player.Name))
	}

	if err := saveRoster(tx, session); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (picksAndBans) Draft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (draftOutcome, error) {
	if seat.Faction != "" {
		return draftOutcome{}, fmt.Errorf("you have already drafted %s: %w", seat.Faction, ErrAlreadyComplete)
	}
	if choice == "" {
		return draftOutcome{
			Message: fmt.Sprintf("Your available factions are:\n%s", strings.Join(seat.Factions, "\n")),
		}, nil
	}
	if session.Turn != seat.TurnOrder {
		return draftOutcome{}, notYourTurn(session, "draft")
	}

	// Banned factions stay in the candidate set so a near-miss against a
	// banned name is reported as "banned" rather than a misleading typo.
	banned := allBans(session)
	candidates := append(append([]string(nil), seat.Factions...), banned...)

	best, ok := utils.ClosestMatch(choice, candidates)
	if !ok {
		return draftOutcome{}, fmt.Errorf("you can't draft faction %s, check your spelling or available factions: %w",
			choice, ErrNoMatch)
	}
	for _, b := range banned {
		if b == best {
			return draftOutcome{}, fmt.Errorf("faction %s has already been banned: %w", best, ErrAlreadyComplete)
		}
	}

	seat.Faction = best
	session.Turn++
	removeFromPools(session, best)
	if err := saveRoster(tx, session); err != nil {
		return draftOutcome{}, err
	}

	msg := fmt.Sprintf("%s has selected %s.", seat.Player.Name, best)
	if session.Turn == len(session.Players) {
		return draftOutcome{Message: msg, Complete: true}, nil
	}
	next, err := currentDrafter(session)
	if err != nil {
		return draftOutcome{}, err
	}
	return draftOutcome{Message: msg + fmt.Sprintf("\nNext drafter is %s.", next.Player.Name)}, nil
}

// homebrewDraft drafts three independent resources per player: faction,
// strategy card and seat position, one per turn in any order, with a
// snake turn order that reverses every full round.
type homebrewDraft struct {
	noBans
	catalog *refdata.Catalog
}

func (homebrewDraft) Start(tx *gorm.DB, session *models.Session, catalog *refdata.Catalog) (string, error) {
	labels, tokens := startSettings(session.Settings)
	n := len(session.Players)
	if n == 0 {
		return "", fmt.Errorf("the lobby has no players: %w", ErrInvalidInput)
	}

	assignTurnOrder(session)
	pool := catalog.FactionNames(tokens)
	for i := range session.Players {
		session.Players[i].Factions = append([]string(nil), pool...)
	}

	session.State = models.StateDraft
	if err := saveRoster(tx, session); err != nil {
		return "", err
	}

	extra := []string{
		"",
		fmt.Sprintf("Each player drafts a faction, a strategy card and a seat position (1-%d), one per turn, in any order.", n),
	}
	return startSummary(session, labels, extra)
}

// resourceCount is the number of resources drafted so far across the
// whole session; it drives the global snake-direction parity.
func resourceCount(session *models.Session) int {
	total := 0
	for i := range session.Players {
		seat := &session.Players[i]
		if seat.Faction != "" {
			total++
		}
		if seat.StrategyCard != "" {
			total++
		}
		if seat.Position != 0 {
			total++
		}
	}
	return total
}

func homebrewComplete(session *models.Session) bool {
	return resourceCount(session) == 3*len(session.Players)
}

// advanceSnake moves the turn cursor after the k-th pick overall:
// direction is +1 while (k-1)/N is even and -1 while odd, and an advance
// that would leave [0, N) without the draft being complete is reverted,
// which is what makes the end seats pick twice in a row.
func advanceSnake(session *models.Session, total int) {
	n := len(session.Players)
	direction := 1
	if ((total-1)/n)%2 == 1 {
		direction = -1
	}
	session.Turn += direction
	if session.Turn < 0 || session.Turn >= n {
		session.Turn -= direction
	}
}

func takenPositions(session *models.Session) map[int]string {
	taken := make(map[int]string)
	for i := range session.Players {
		if session.Players[i].Position != 0 {
			taken[session.Players[i].Position] = session.Players[i].Player.Name
		}
	}
	return taken
}

func takenCards(session *models.Session) map[string]string {
	taken := make(map[string]string)
	for i := range session.Players {
		if session.Players[i].StrategyCard != "" {
			taken[session.Players[i].StrategyCard] = session.Players[i].Player.Name
		}
	}
	return taken
}

func (m homebrewDraft) Draft(tx *gorm.DB, session *models.Session, seat *models.SessionPlayer, choice string) (draftOutcome, error) {
	cards := m.catalog.StrategyCardNames()

	if seat.Faction != "" && seat.StrategyCard != "" && seat.Position != 0 {
		return draftOutcome{}, fmt.Errorf("you have drafted all your resources: %w", ErrAlreadyComplete)
	}
	if choice == "" {
		return draftOutcome{Message: m.optionsView(session, seat, cards)}, nil
	}
	if session.Turn != seat.TurnOrder {
		return draftOutcome{}, notYourTurn(session, "draft")
	}

	picked, err := m.resolve(session, seat, choice, cards)
	if err != nil {
		return draftOutcome{}, err
	}

	total := resourceCount(session)
	complete := homebrewComplete(session)
	if !complete {
		advanceSnake(session, total)
	}
	if err := saveRoster(tx, session); err != nil {
		return draftOutcome{}, err
	}

	msg := fmt.Sprintf("%s has drafted %s.", seat.Player.Name, picked)
	if complete {
		return draftOutcome{Message: msg, Complete: true}, nil
	}
	next, err := currentDrafter(session)
	if err != nil {
		return draftOutcome{}, err
	}
	return draftOutcome{Message: msg + fmt.Sprintf("\nNext drafter is %s.", next.Player.Name)}, nil
}

// resolve disambiguates a free-text choice: exact integer means a seat
// position, an exact case-insensitive strategy-card name means that card,
// anything else is similarity-matched against the union of remaining
// factions and remaining strategy cards.
func (homebrewDraft) resolve(session *models.Session, seat *models.SessionPlayer, choice string, cards []string) (string, error) {
	n := len(session.Players)
	trimmed := strings.TrimSpace(choice)

	if pos, err := strconv.Atoi(trimmed); err == nil {
		if seat.Position != 0 {
			return "", fmt.Errorf("you have already drafted seat position %d: %w", seat.Position, ErrAlreadyComplete)
		}
		if pos < 1 || pos > n {
			return "", fmt.Errorf("seat positions run from 1 to %d: %w", n, ErrInvalidInput)
		}
		if owner, taken := takenPositions(session)[pos]; taken {
			return "", fmt.Errorf("seat position %d is already taken by %s: %w", pos, owner, ErrNoMatch)
		}
		seat.Position = pos
		return fmt.Sprintf("seat position %d", pos), nil
	}

	for _, card := range cards {
		if strings.EqualFold(trimmed, card) {
			if seat.StrategyCard != "" {
				return "", fmt.Errorf("you have already drafted the %s strategy card: %w", seat.StrategyCard, ErrAlreadyComplete)
			}
			if owner, taken := takenCards(session)[card]; taken {
				return "", fmt.Errorf("%s is already taken by %s: %w", card, owner, ErrNoMatch)
			}
			seat.StrategyCard = card
			return card, nil
		}
	}

	cardsTaken := takenCards(session)
	var candidates []string
	isCard := make(map[string]bool)
	if seat.Faction == "" {
		candidates = append(candidates, seat.Factions...)
	}
	if seat.StrategyCard == "" {
		for _, card := range cards {
			if _, taken := cardsTaken[card]; !taken {
				candidates = append(candidates, card)
				isCard[card] = true
			}
		}
	}

	best, ok := utils.ClosestMatch(trimmed, candidates)
	if !ok {
		return "", fmt.Errorf("you can't draft %s, check your spelling or remaining options: %w", choice, ErrNoMatch)
	}
	if isCard[best] {
		seat.StrategyCard = best
		return best, nil
	}
	seat.Faction = best
	removeFromPools(session, best)
	return best, nil
}

func (homebrewDraft) optionsView(session *models.Session, seat *models.SessionPlayer, cards []string) string {
	n := len(session.Players)
	var lines []string

	var needed []string
	if seat.Faction == "" {
		needed = append(needed, "a faction")
	}
	if seat.StrategyCard == "" {
		needed = append(needed, "a strategy card")
	}
	if seat.Position == 0 {
		needed = append(needed, "a seat position")
	}
	lines = append(lines, fmt.Sprintf("You still need %s.", strings.Join(needed, ", ")))

	if seat.Position == 0 {
		taken := takenPositions(session)
		var open []string
		for pos := 1; pos <= n; pos++ {
			if _, ok := taken[pos]; !ok {
				open = append(open, strconv.Itoa(pos))
			}
		}
		lines = append(lines, fmt.Sprintf("Open seat positions: %s", strings.Join(open, ", ")))
	}
	if seat.StrategyCard == "" {
		taken := takenCards(session)
		var open []string
		for _, card := range cards {
			if _, ok := taken[card]; !ok {
				open = append(open, card)
			}
		}
		lines = append(lines, fmt.Sprintf("Open strategy cards: %s", strings.Join(open, ", ")))
	}
	if seat.Faction == "" {
		lines = append(lines, fmt.Sprintf("Your available factions are:\n%s", strings.Join(seat.Factions, "\n")))
	}
	return strings.Join(lines, "\n")
}
