package domain

import "time"

// MatchRequest is a pending duel intent waiting in the matchmaking queue.
// Unique per connection ID.
type MatchRequest struct {
	ConnID      string
	UserID      int64
	DisplayName string
	Category    string
	EnqueuedAt  time.Time
}

// PlayerSlot is one of the two participants of a duel. Bots have a
// synthetic connection ID and no user ID.
type PlayerSlot struct {
	ConnID      string `json:"connId"`
	UserID      *int64 `json:"userId,omitempty"` // nil for bots
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`
}

type Question struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

type DuelState string

const (
	StateForming   DuelState = "Forming"
	StateActive    DuelState = "Active"
	StateCompleted DuelState = "Completed"
)

type Result string

const (
	ResultPending Result = "Pending"
	ResultWin     Result = "Win"
	ResultLoss    Result = "Loss"
	ResultDraw    Result = "Draw"
)

// DuelSession is the in-memory record of one duel. The question set is
// fixed at creation and never re-sampled. Scores and completion flags are
// keyed by connection ID.
type DuelSession struct {
	RoomID       string
	Category     string
	Players      [2]PlayerSlot
	Questions    []Question
	Scores       map[string]int
	CompletedBy  map[string]bool
	State        DuelState
	PersistentID *int64
	CreatedAt    time.Time
	CompletedAt  time.Time
}

// Player returns the slot for a connection ID.
func (s *DuelSession) Player(connID string) (PlayerSlot, bool) {
	for _, p := range s.Players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return PlayerSlot{}, false
}

// Opponent returns the slot of the other participant.
func (s *DuelSession) Opponent(connID string) (PlayerSlot, bool) {
	if s.Players[0].ConnID == connID {
		return s.Players[1], true
	}
	if s.Players[1].ConnID == connID {
		return s.Players[0], true
	}
	return PlayerSlot{}, false
}

// Clone returns a deep copy safe to use outside the registry lock.
func (s *DuelSession) Clone() DuelSession {
	c := *s
	c.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		c.Scores[k] = v
	}
	c.CompletedBy = make(map[string]bool, len(s.CompletedBy))
	for k, v := range s.CompletedBy {
		c.CompletedBy[k] = v
	}
	c.Questions = append([]Question(nil), s.Questions...)
	return c
}

// Results computes each player's result by score comparison. Equal scores
// are a draw. Only meaningful once the session is Completed.
func (s *DuelSession) Results() [2]Result {
	a := s.Scores[s.Players[0].ConnID]
	b := s.Scores[s.Players[1].ConnID]
	switch {
	case a > b:
		return [2]Result{ResultWin, ResultLoss}
	case a < b:
		return [2]Result{ResultLoss, ResultWin}
	default:
		return [2]Result{ResultDraw, ResultDraw}
	}
}

// PlayerRecord is the durable form of one participant's outcome.
type PlayerRecord struct {
	UserID      *int64 `json:"userId,omitempty"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Result      Result `json:"result"`
}

// DuelRecord is the durable form of a duel session.
type DuelRecord struct {
	ID          int64           `json:"id"`
	RoomID      string          `json:"roomId"`
	Category    string          `json:"category"`
	Players     [2]PlayerRecord `json:"players"`
	QuestionIDs []int64         `json:"questionIds"`
	Status      DuelState       `json:"status"`
	Winner      string          `json:"winner,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	EndedAt     time.Time       `json:"endedAt,omitempty"`
}

// Record converts the session into its durable form. Results are Pending
// until the session is Completed; the winner is the display name of the
// higher-scoring player, empty on a draw.
func (s *DuelSession) Record() *DuelRecord {
	rec := &DuelRecord{
		RoomID:    s.RoomID,
		Category:  s.Category,
		Status:    s.State,
		StartedAt: s.CreatedAt,
		EndedAt:   s.CompletedAt,
	}
	for i, p := range s.Players {
		rec.Players[i] = PlayerRecord{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Score:       s.Scores[p.ConnID],
			Result:      ResultPending,
		}
	}
	for _, q := range s.Questions {
		rec.QuestionIDs = append(rec.QuestionIDs, q.ID)
	}
	if s.State == StateCompleted {
		results := s.Results()
		for i := range rec.Players {
			rec.Players[i].Result = results[i]
			if results[i] == ResultWin {
				rec.Winner = rec.Players[i].DisplayName
			}
		}
	}
	return rec
}
