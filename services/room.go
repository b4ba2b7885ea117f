package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kingofdiamonds/models"
)

// GameState is the room's lifecycle phase.
type GameState string

const (
	StateWaiting   GameState = "waiting"
	StateCountdown GameState = "countdown"
	StatePlaying   GameState = "playing"
	StateFinished  GameState = "finished"
)

// Broadcaster delivers events to room subscribers. The websocket hub
// implements it; tests substitute a recording fake.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload interface{})
	SendToPlayer(playerID, event string, payload interface{})
}

var ErrGameInProgress = errors.New("setting can only be changed before the game starts")

// phaseTimer is a cancelable handle for one of the room's timer goroutines.
type phaseTimer struct {
	stop chan struct{}
	once sync.Once
}

func newPhaseTimer() *phaseTimer {
	return &phaseTimer{stop: make(chan struct{})}
}

func (t *phaseTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Room owns all mutable state for one game session. Every mutation
// (player actions from the gateway, timer expirations, bot submissions)
// is serialized through the room mutex.
type Room struct {
	ID     string
	HostID string

	mu          sync.Mutex
	config      RoomConfig
	broadcaster Broadcaster
	botAI       *BotAI
	rng         *rand.Rand

	gameState            GameState
	players              map[string]*models.Player
	order                []string // join order
	currentRound         int
	eliminatedCount      int
	roundHistory         []models.RoundResult
	playersReady         map[string]bool
	botAssignmentEnabled bool

	// roundSeq increments whenever a round opens or resolves; timers and
	// delayed bot submissions carry the sequence they were scheduled for
	// and no-op when it is stale. This is what makes round resolution
	// idempotent under the timer/last-submission race.
	roundSeq    int
	roundOpen   bool     // a round is accepting submissions
	submitOrder []string // player IDs in submission order this round

	countdownTimer *phaseTimer
	roundTimer     *phaseTimer
	nextRoundTimer *phaseTimer
	botTimers      []*time.Timer

	closed bool
}

func NewRoom(roomID, hostID string, cfg RoomConfig, broadcaster Broadcaster) *Room {
	return &Room{
		ID:                   roomID,
		HostID:               hostID,
		config:               cfg,
		broadcaster:          broadcaster,
		botAI:                NewBotAI(),
		rng:                  rand.New(rand.NewSource(time.Now().UnixNano())),
		gameState:            StateWaiting,
		players:              make(map[string]*models.Player),
		playersReady:         make(map[string]bool),
		botAssignmentEnabled: true,
	}
}

// AddPlayer inserts a player. It fails when the non-departed roster is
// already at capacity.
func (r *Room) AddPlayer(playerID, name string, isBot bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPlayerLocked(playerID, name, isBot)
}

func (r *Room) addPlayerLocked(playerID, name string, isBot bool) bool {
	if r.activeCountLocked() >= r.config.MaxPlayers {
		return false
	}
	r.players[playerID] = models.NewPlayer(playerID, name, isBot)
	r.order = append(r.order, playerID)
	return true
}

// RemovePlayer handles a departure. Bots are deleted outright; humans are
// deleted while waiting and marked as left once the game has started, with
// an optional bot proxy taking over. Returns true when the room holds no
// non-departed players and should be deleted.
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[playerID]
	if ok {
		if player.IsBot && player.AssignedBotName == "" {
			r.deletePlayerLocked(playerID)
		} else if r.gameState == StateWaiting {
			r.deletePlayerLocked(playerID)
		} else {
			r.markHumanLeftLocked(player)
		}
		delete(r.playersReady, playerID)
	}

	if r.activeCountLocked() == 0 {
		return true
	}

	// A departure can shrink the eligible set to exactly the players who
	// have already submitted, which counts as the last submission.
	r.maybeResolveAfterRosterChangeLocked()
	return false
}

func (r *Room) markHumanLeftLocked(player *models.Player) {
	hadChosen := player.HasChosenThisRound
	player.HasLeft = true
	player.HasChosenThisRound = false

	// Seats taken over by bot proxies still count as human for the solo
	// check, otherwise the last of several humans leaving would look like
	// a one-player game.
	humans := 0
	activeHumans := 0
	for _, p := range r.players {
		if p.WasHuman() {
			humans++
			if !p.HasLeft {
				activeHumans++
			}
		}
	}

	if humans == 1 && activeHumans == 0 {
		// Solo game: the only human is gone, nothing left to play for.
		log.Printf("[Room %s] Solo game ended - player %s left", r.ID, player.ID)
		r.finishGameLocked("Game ended - player left", "solo_player_left")
		return
	}

	if !r.botAssignmentEnabled {
		log.Printf("[Room %s] Player %s left - no bot assigned (disabled by host)", r.ID, player.ID)
		return
	}

	r.assignBotToLeftPlayerLocked(player, hadChosen)

	if r.onlyBotsRemainingLocked() && r.gameState == StatePlaying {
		log.Printf("[Room %s] Terminating game - only bots remaining after %s left", r.ID, player.ID)
		r.finishGameLocked("Game terminated - no human players remaining", "no_humans")
	}
}

// assignBotToLeftPlayerLocked converts a departed human into a bot proxy
// that keeps the human's score and original name. A choice already made
// this round is preserved; otherwise a capped-delay submission is scheduled
// so the round is not stalled waiting on someone who is gone.
func (r *Room) assignBotToLeftPlayerLocked(player *models.Player, hadChosen bool) {
	used := make(map[string]bool)
	for _, p := range r.players {
		if p.IsBot || p.AssignedBotName != "" {
			if p.AssignedBotName != "" {
				used[p.AssignedBotName] = true
			} else {
				used[p.Name] = true
			}
		}
	}

	var available []string
	for _, name := range BotNames {
		if !used[name] {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		player.AssignedBotName = fmt.Sprintf("Bot %d", r.rng.Intn(1000))
	} else {
		player.AssignedBotName = available[r.rng.Intn(len(available))]
	}

	if player.OriginalName == "" {
		player.OriginalName = player.Name
	}
	player.IsBot = true
	if hadChosen {
		player.HasChosenThisRound = true
	}

	log.Printf("[Room %s] Assigned bot %q to take over for %q (had chosen: %v)",
		r.ID, player.AssignedBotName, player.OriginalName, hadChosen)

	if r.gameState == StatePlaying && !hadChosen {
		delay := r.botAI.ResponseDelay()
		if delay > AssignedBotDelayCap {
			delay = AssignedBotDelayCap
		}
		r.scheduleBotSubmissionLocked(player.ID, r.roundSeq, delay)
	}
}

func (r *Room) deletePlayerLocked(playerID string) {
	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// FillWithBots tops the roster up to capacity with uniquely named bots.
// It is a no-op once the game has left the waiting state.
func (r *Room) FillWithBots() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillWithBotsLocked()
}

func (r *Room) fillWithBotsLocked() {
	if r.gameState != StateWaiting {
		log.Printf("[Room %s] Cannot add bots - game already in progress (state: %s)", r.ID, r.gameState)
		return
	}

	needed := r.config.MaxPlayers - r.activeCountLocked()
	if needed <= 0 {
		return
	}

	inUse := make(map[string]bool)
	for _, p := range r.players {
		inUse[p.Name] = true
	}

	var available []string
	for _, name := range BotNames {
		if !inUse[name] {
			available = append(available, name)
		}
	}
	// Fisher-Yates shuffle so each game sees a different cast.
	for i := len(available) - 1; i > 0; i-- {
		j := r.rng.Intn(i + 1)
		available[i], available[j] = available[j], available[i]
	}

	for i := 0; i < needed && i < len(available); i++ {
		botID := uuid.NewString()
		r.addPlayerLocked(botID, available[i], true)
		log.Printf("[Room %s] Added bot %s", r.ID, available[i])
	}
}

// StartGame moves the room from waiting into the pre-game countdown,
// backfilling the roster with bots first.
func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameState != StateWaiting {
		log.Printf("[Room %s] Cannot start game - already in progress (state: %s)", r.ID, r.gameState)
		return false
	}
	if r.activeCountLocked() < r.config.MinPlayers {
		return false
	}

	r.fillWithBotsLocked()
	r.gameState = StateCountdown
	r.startCountdownLocked()
	log.Printf("[Room %s] Game started with %d players", r.ID, r.activeCountLocked())
	return true
}

func (r *Room) startCountdownLocked() {
	timer := newPhaseTimer()
	r.countdownTimer = timer
	count := r.config.CountdownSeconds

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-timer.stop:
				return
			case <-ticker.C:
			}
			r.broadcaster.BroadcastToRoom(r.ID, "countdown", count)
			count--
			if count < 0 {
				r.beginPlaying(timer)
				return
			}
		}
	}()
}

func (r *Room) beginPlaying(timer *phaseTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gameState != StateCountdown || r.countdownTimer != timer {
		return
	}
	r.countdownTimer = nil
	r.gameState = StatePlaying
	r.startNewRoundLocked()
}

func (r *Room) startNewRoundLocked() {
	r.currentRound++
	r.roundSeq++
	seq := r.roundSeq

	r.stopTimerLocked(&r.nextRoundTimer)
	r.stopBotTimersLocked()

	for _, p := range r.players {
		p.CurrentChoice = nil
		p.HasChosenThisRound = false
	}
	r.playersReady = make(map[string]bool)
	r.submitOrder = nil
	r.roundOpen = true

	r.startRoundTimerLocked(seq)

	// Stagger bot submissions so the round does not resolve instantly.
	stagger := time.AfterFunc(BotChoiceStagger, func() { r.makeBotChoices(seq) })
	r.botTimers = append(r.botTimers, stagger)

	r.broadcaster.BroadcastToRoom(r.ID, "newRound", gin.H{
		"round":       r.currentRound,
		"activeRules": r.activeRulesLocked(),
		"players":     r.playersInfoLocked(false),
	})

	chosen, total := r.choiceProgressLocked()
	r.broadcaster.BroadcastToRoom(r.ID, "choiceUpdate", gin.H{
		"chosenCount":        chosen,
		"totalActivePlayers": total,
	})
}

func (r *Room) startRoundTimerLocked(seq int) {
	timer := newPhaseTimer()
	r.roundTimer = timer
	remaining := int(r.config.RoundTimeLimit / time.Second)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-timer.stop:
				return
			case <-ticker.C:
			}
			r.broadcaster.BroadcastToRoom(r.ID, "roundTimer", remaining)
			remaining--
			if remaining < 0 {
				r.resolveFromTimer(seq)
				return
			}
		}
	}()
}

func (r *Room) resolveFromTimer(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gameState != StatePlaying || seq != r.roundSeq {
		return
	}
	r.resolveRoundLocked()
}

// makeBotChoices schedules a delayed submission for every bot still in the
// round, regular bots and assigned proxies alike.
func (r *Room) makeBotChoices(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gameState != StatePlaying || seq != r.roundSeq {
		return
	}

	for _, id := range r.order {
		p := r.players[id]
		if p == nil || !p.IsBot || p.IsEliminated || p.HasChosenThisRound {
			continue
		}
		if p.HasLeft && p.AssignedBotName == "" {
			continue
		}
		r.scheduleBotSubmissionLocked(id, seq, r.botAI.ResponseDelay())
	}
}

func (r *Room) scheduleBotSubmissionLocked(playerID string, seq int, delay time.Duration) {
	t := time.AfterFunc(delay, func() { r.submitBotChoice(playerID, seq) })
	r.botTimers = append(r.botTimers, t)
}

func (r *Room) submitBotChoice(playerID string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gameState != StatePlaying || seq != r.roundSeq {
		return
	}
	player, ok := r.players[playerID]
	if !ok || player.IsEliminated || player.HasChosenThisRound {
		return
	}
	if player.HasLeft && player.AssignedBotName == "" {
		return
	}

	choice := r.botAI.CalculateChoice(player, r.gameContextLocked())
	log.Printf("[Room %s] Bot %s choosing %d", r.ID, player.Name, choice)
	r.recordChoiceLocked(player, choice)
}

// MakeChoice records a submission for the round. It fails silently when the
// player is unknown, eliminated, departed without a proxy, already chose, or
// no round is open. Range validation happens at the gateway.
func (r *Room) MakeChoice(playerID string, choice int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameState != StatePlaying || !r.roundOpen {
		return false
	}
	player, ok := r.players[playerID]
	if !ok || player.IsEliminated || player.HasChosenThisRound {
		return false
	}
	if player.HasLeft && !(r.botAssignmentEnabled && player.AssignedBotName != "") {
		return false
	}

	r.recordChoiceLocked(player, choice)
	return true
}

func (r *Room) recordChoiceLocked(player *models.Player, choice int) {
	c := choice
	player.CurrentChoice = &c
	player.HasChosenThisRound = true
	r.submitOrder = append(r.submitOrder, player.ID)

	chosen, total := r.choiceProgressLocked()
	r.broadcaster.BroadcastToRoom(r.ID, "choiceUpdate", gin.H{
		"chosenCount":        chosen,
		"totalActivePlayers": total,
		"lastPlayerName":     displayLabel(player),
		"timestamp":          time.Now().UnixMilli(),
	})

	if chosen == total {
		r.stopTimerLocked(&r.roundTimer)
		r.resolveRoundLocked()
	}
}

func displayLabel(player *models.Player) string {
	switch {
	case player.IsBot && player.AssignedBotName != "":
		return fmt.Sprintf("Bot %s (for %s)", player.AssignedBotName, player.OriginalName)
	case player.IsBot:
		return "Bot " + player.Name
	default:
		return "Player"
	}
}

// resolveRoundLocked is the single place a round is scored. Clearing
// roundOpen at the top guarantees it runs at most once per round no matter
// which trigger (full submission, timer expiry, departure) got here first.
func (r *Room) resolveRoundLocked() {
	if r.gameState != StatePlaying || !r.roundOpen {
		return
	}
	r.roundOpen = false
	r.roundSeq++
	r.stopTimerLocked(&r.roundTimer)
	r.stopBotTimersLocked()

	active := r.eligiblePlayersLocked()
	activeIDs := make(map[string]bool, len(active))
	losses := make(map[string][]models.PointLoss, len(active))
	for _, p := range active {
		activeIDs[p.ID] = true
		losses[p.ID] = nil
	}

	var timeoutPlayers, eliminatedByTimeout, newlyEliminated []string
	for _, p := range active {
		if p.HasChosenThisRound {
			p.TimeoutCount = 0
			continue
		}
		p.TimeoutCount++
		p.CurrentChoice = nil
		if p.TimeoutCount >= TimeoutEliminationThreshold {
			// Second consecutive timeout: out, no point penalty.
			p.IsEliminated = true
			r.eliminatedCount++
			eliminatedByTimeout = append(eliminatedByTimeout, p.Name)
			newlyEliminated = append(newlyEliminated, p.Name)
			losses[p.ID] = append(losses[p.ID], models.PointLoss{Reason: "Second timeout (eliminated)", Points: 0})
		} else {
			p.Score -= TimeoutPenalty
			timeoutPlayers = append(timeoutPlayers, p.Name)
			losses[p.ID] = append(losses[p.ID], models.PointLoss{Reason: "Timeout", Points: -TimeoutPenalty})
		}
	}

	// Submitters in submission order: the order doubles as the documented
	// tie-break for closest-to-target (earliest submission wins).
	var submitters []*models.Player
	for _, id := range r.submitOrder {
		p := r.players[id]
		if p != nil && activeIDs[id] && p.HasChosenThisRound && p.CurrentChoice != nil {
			submitters = append(submitters, p)
		}
	}

	if len(submitters) == 0 {
		r.checkEliminationsLocked(&newlyEliminated)
		r.recordRoundLocked(active, 0, 0, "No winner - All players timed out",
			timeoutPlayers, eliminatedByTimeout, newlyEliminated, losses)
		r.checkGameEndLocked()
		return
	}

	sum := 0
	for _, p := range submitters {
		sum += *p.CurrentChoice
	}
	average := float64(sum) / float64(len(submitters))
	target := average * 0.8

	var winner *models.Player
	minDistance := math.Inf(1)
	for _, p := range submitters {
		distance := math.Abs(float64(*p.CurrentChoice) - target)
		if distance < minDistance {
			minDistance = distance
			winner = p
		}
	}

	winner = r.applyRulesLocked(submitters, target, winner, losses)

	// Everyone who submitted but did not win loses a point, on top of any
	// rule penalties above.
	for _, p := range submitters {
		if p.ID != winner.ID {
			p.Score -= LossPenalty
			losses[p.ID] = append(losses[p.ID], models.PointLoss{Reason: "Not closest to target", Points: -LossPenalty})
		}
	}

	r.checkEliminationsLocked(&newlyEliminated)
	r.recordRoundLocked(active, average, target, winner.DisplayName(),
		timeoutPlayers, eliminatedByTimeout, newlyEliminated, losses)
	r.checkGameEndLocked()
}

// applyRulesLocked applies the escalating penalties and returns the final
// winner (the zero-hundred gambit can override the distance-based one).
func (r *Room) applyRulesLocked(submitters []*models.Player, target float64, winner *models.Player, losses map[string][]models.PointLoss) *models.Player {
	if DuplicateRuleActive(r.eliminatedCount) {
		counts := make(map[int]int)
		for _, p := range submitters {
			counts[*p.CurrentChoice]++
		}
		for _, p := range submitters {
			if counts[*p.CurrentChoice] > 1 {
				p.Score -= DuplicatePenalty
				losses[p.ID] = append(losses[p.ID], models.PointLoss{Reason: "Duplicate number", Points: -DuplicatePenalty})
			}
		}
	}

	if PerfectTargetRuleActive(r.eliminatedCount) {
		rounded := int(math.Round(target))
		var exactMatch *models.Player
		for _, p := range submitters {
			if *p.CurrentChoice == rounded {
				exactMatch = p
				break
			}
		}
		if exactMatch != nil {
			for _, p := range submitters {
				if p.ID != exactMatch.ID {
					p.Score -= PerfectTargetPenalty
					losses[p.ID] = append(losses[p.ID], models.PointLoss{Reason: "Someone hit exact target", Points: -PerfectTargetPenalty})
				}
			}
		}
	}

	// Zero-hundred gambit: gated purely on the live player count.
	if r.livePlayerCountLocked() == 2 {
		var zeroPlayer, hundredPlayer *models.Player
		for _, p := range submitters {
			switch *p.CurrentChoice {
			case 0:
				zeroPlayer = p
			case 100:
				hundredPlayer = p
			}
		}
		if zeroPlayer != nil && hundredPlayer != nil {
			winner = hundredPlayer
		}
	}

	return winner
}

func (r *Room) checkEliminationsLocked(newlyEliminated *[]string) {
	for _, id := range r.order {
		p := r.players[id]
		if p.Score <= EliminationScore && !p.IsEliminated {
			p.IsEliminated = true
			r.eliminatedCount++
			*newlyEliminated = append(*newlyEliminated, p.Name)
		}
	}
}

func (r *Room) recordRoundLocked(active []*models.Player, average, target float64, winner string,
	timeoutPlayers, eliminatedByTimeout, newlyEliminated []string, losses map[string][]models.PointLoss) {

	choices := make([]models.PlayerChoice, 0, len(active))
	for _, p := range active {
		choices = append(choices, models.PlayerChoice{
			Name:        p.Name,
			Choice:      p.CurrentChoice,
			TimedOut:    !p.HasChosenThisRound,
			PointLosses: losses[p.ID],
		})
	}

	result := models.RoundResult{
		Round:               r.currentRound,
		Choices:             choices,
		Average:             average,
		Target:              target,
		Winner:              winner,
		TimeoutPlayers:      timeoutPlayers,
		EliminatedByTimeout: eliminatedByTimeout,
		EliminatedThisRound: newlyEliminated,
	}
	r.roundHistory = append(r.roundHistory, result)

	r.broadcaster.BroadcastToRoom(r.ID, "roundResult", gin.H{
		"round":               result.Round,
		"choices":             result.Choices,
		"average":             result.Average,
		"target":              result.Target,
		"winner":              result.Winner,
		"timeoutPlayers":      result.TimeoutPlayers,
		"eliminatedByTimeout": result.EliminatedByTimeout,
		"eliminatedThisRound": result.EliminatedThisRound,
		"players":             r.playersInfoLocked(true),
	})
}

func (r *Room) checkGameEndLocked() {
	if r.gameState != StatePlaying {
		return
	}

	if r.onlyBotsRemainingLocked() {
		log.Printf("[Room %s] Game terminated - only bots remaining", r.ID)
		r.finishGameLocked("Game terminated - no human players remaining", "no_humans")
		return
	}

	remaining := r.eligiblePlayersLocked()
	if len(remaining) <= 1 {
		winner := "No winner"
		if len(remaining) == 1 {
			winner = remaining[0].DisplayName()
		}
		r.finishGameLocked(winner, "")
		return
	}

	r.startNextRoundCountdownLocked()
}

func (r *Room) finishGameLocked(winner, reason string) {
	r.gameState = StateFinished
	r.roundOpen = false
	r.roundSeq++
	r.stopAllTimersLocked()

	payload := gin.H{
		"winner":      winner,
		"finalScores": r.playersInfoLocked(true),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	r.broadcaster.BroadcastToRoom(r.ID, "gameFinished", payload)
}

func (r *Room) startNextRoundCountdownLocked() {
	r.playersReady = make(map[string]bool)
	seq := r.roundSeq
	timer := newPhaseTimer()
	r.nextRoundTimer = timer
	countdown := int(r.config.NextRoundDelay / time.Second)

	r.broadcaster.BroadcastToRoom(r.ID, "nextRoundCountdown", countdown)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-timer.stop:
				return
			case <-ticker.C:
			}
			countdown--
			r.broadcaster.BroadcastToRoom(r.ID, "nextRoundCountdown", countdown)
			if countdown <= 0 {
				r.startNextRoundFromTimer(seq, timer)
				return
			}
		}
	}()
}

func (r *Room) startNextRoundFromTimer(seq int, timer *phaseTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gameState != StatePlaying || seq != r.roundSeq || r.nextRoundTimer != timer {
		return
	}
	r.nextRoundTimer = nil
	r.startNewRoundLocked()
}

// PlayerReady marks a player ready for the next round. All live bots ride
// along; when every eligible player is ready the inter-round delay is cut
// short.
func (r *Room) PlayerReady(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameState != StatePlaying {
		return
	}
	r.playersReady[playerID] = true
	for _, p := range r.players {
		if p.IsBot && !p.IsEliminated {
			r.playersReady[p.ID] = true
		}
	}

	active := r.eligiblePlayersLocked()
	allReady := true
	for _, p := range active {
		if !r.playersReady[p.ID] {
			allReady = false
			break
		}
	}

	r.broadcaster.BroadcastToRoom(r.ID, "readyUpdate", gin.H{
		"readyCount":  len(r.playersReady),
		"totalActive": len(active),
		"allReady":    allReady,
	})

	if allReady && r.nextRoundTimer != nil {
		r.stopTimerLocked(&r.nextRoundTimer)
		r.broadcaster.BroadcastToRoom(r.ID, "nextRoundCountdown", 0)
		seq := r.roundSeq
		t := time.AfterFunc(ReadyStartSmoothing, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.closed || r.gameState != StatePlaying || seq != r.roundSeq {
				return
			}
			r.startNewRoundLocked()
		})
		r.botTimers = append(r.botTimers, t)
	}
}

// SetBotAssignmentEnabled toggles whether departed humans get a bot proxy.
// Only permitted before the game starts; the gateway rejects non-host
// callers before this is reached.
func (r *Room) SetBotAssignmentEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameState != StateWaiting {
		return ErrGameInProgress
	}
	r.botAssignmentEnabled = enabled
	log.Printf("[Room %s] Bot assignment set to %v", r.ID, enabled)
	return nil
}

// Close cancels every pending timer. Must be called before the room is
// removed from the registry so nothing fires for a dead room.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.roundSeq++
	r.stopAllTimersLocked()
}

func (r *Room) stopAllTimersLocked() {
	r.stopTimerLocked(&r.countdownTimer)
	r.stopTimerLocked(&r.roundTimer)
	r.stopTimerLocked(&r.nextRoundTimer)
	r.stopBotTimersLocked()
}

func (r *Room) stopTimerLocked(t **phaseTimer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (r *Room) stopBotTimersLocked() {
	for _, t := range r.botTimers {
		t.Stop()
	}
	r.botTimers = nil
}

func (r *Room) maybeResolveAfterRosterChangeLocked() {
	if r.gameState != StatePlaying || !r.roundOpen {
		return
	}
	chosen, total := r.choiceProgressLocked()
	if total > 0 && chosen == total {
		r.stopTimerLocked(&r.roundTimer)
		r.resolveRoundLocked()
	}
}

// --- roster queries -------------------------------------------------------

// activeCountLocked counts non-departed players; this is the roster size
// used for capacity checks.
func (r *Room) activeCountLocked() int {
	count := 0
	for _, p := range r.players {
		if !p.HasLeft {
			count++
		}
	}
	return count
}

// livePlayerCountLocked counts players still at the table in person.
func (r *Room) livePlayerCountLocked() int {
	count := 0
	for _, p := range r.players {
		if !p.IsEliminated && !p.HasLeft {
			count++
		}
	}
	return count
}

// eligiblePlayersLocked snapshots the players taking part in the current
// round, in join order.
func (r *Room) eligiblePlayersLocked() []*models.Player {
	var eligible []*models.Player
	for _, id := range r.order {
		p := r.players[id]
		if p.Eligible(r.botAssignmentEnabled) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// onlyBotsRemainingLocked reports whether no connected human is left in the
// game. Departed humans played by proxies do not count: a game of bots
// alone has no audience and gets terminated.
func (r *Room) onlyBotsRemainingLocked() bool {
	active := r.eligiblePlayersLocked()
	if len(active) == 0 {
		return false
	}
	for _, p := range active {
		if !p.IsBot && !p.HasLeft {
			return false
		}
	}
	return true
}

func (r *Room) choiceProgressLocked() (chosen, total int) {
	for _, p := range r.eligiblePlayersLocked() {
		total++
		if p.HasChosenThisRound {
			chosen++
		}
	}
	return chosen, total
}

func (r *Room) activeRulesLocked() []string {
	return ActiveRules(r.eliminatedCount, r.livePlayerCountLocked())
}

func (r *Room) playersInfoLocked(includeChoice bool) []models.PlayerInfo {
	infos := make([]models.PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.players[id].Info(includeChoice))
	}
	return infos
}

func (r *Room) gameContextLocked() GameContext {
	return GameContext{
		ActiveRules:     r.activeRulesLocked(),
		ActivePlayers:   r.eligiblePlayersLocked(),
		RoundHistory:    r.roundHistory,
		EliminatedCount: r.eliminatedCount,
		CurrentRound:    r.currentRound,
	}
}

// --- public accessors -----------------------------------------------------

func (r *Room) State() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameState
}

func (r *Room) CurrentRound() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentRound
}

func (r *Room) BotAssignmentEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.botAssignmentEnabled
}

func (r *Room) ActiveRules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeRulesLocked()
}

func (r *Room) History() []models.RoundResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := make([]models.RoundResult, len(r.roundHistory))
	copy(history, r.roundHistory)
	return history
}

func (r *Room) PlayersInfo(includeChoice bool) []models.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersInfoLocked(includeChoice)
}

// HasPlayer reports whether the player belongs to this room.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[playerID]
	return ok
}

// HumanCount counts players that joined as humans, departed or not. The
// registry sweeper uses it to find abandoned bot-only rooms.
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.players {
		if !p.IsBot {
			count++
		}
	}
	return count
}

// PlayerCount is the size of the full roster, departed players included.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// ChoiceProgress returns the submission progress of the open round.
func (r *Room) ChoiceProgress() (chosen, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.choiceProgressLocked()
}

// Snapshot builds the roomJoined payload for one player.
func (r *Room) Snapshot(playerID string) gin.H {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make([]models.RoundResult, len(r.roundHistory))
	copy(history, r.roundHistory)

	return gin.H{
		"roomId":               r.ID,
		"players":              r.playersInfoLocked(false),
		"gameState":            r.gameState,
		"currentRound":         r.currentRound,
		"activeRules":          r.activeRulesLocked(),
		"roundHistory":         history,
		"botAssignmentEnabled": r.botAssignmentEnabled,
		"isHost":               playerID == r.HostID,
	}
}
