package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeJoinQueue       = "join_queue"
	TypeCancelQueue     = "cancel_queue"
	TypeJoinDuel        = "join_duel"
	TypeSubmitAnswer    = "submit_answer"
	TypeRequestHint     = "request_hint"
	TypeAcceptHint      = "accept_hint"
	TypeEliminateOption = "eliminate_option"
	TypeTriggerSabotage = "trigger_sabotage"
	TypeRequestQuestion = "request_question"

	// Server -> Client
	TypeQueueUpdate       = "queue_update"
	TypeDuelFound         = "duel_found"
	TypeDuelState         = "duel_state"
	TypeQuestion          = "question"
	TypeAnswerAck         = "answer_ack"
	TypeSabotage          = "sabotage"
	TypeDuelComplete      = "duel_complete"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Client Messages (incoming)

type JoinQueuePayload struct {
	Mode       string `json:"mode,omitempty"`   // "choice" (default) or "anagram"
	Preset     string `json:"preset,omitempty"` // "easy" (default), "medium", "hard"
	WordListID string `json:"word_list_id,omitempty"`
}

type CancelQueuePayload struct {
	QueueToken string `json:"queue_token"`
}

type DuelRefPayload struct {
	DuelID string `json:"duel_id"`
}

type SubmitAnswerPayload struct {
	DuelID        string `json:"duel_id"`
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
}

type EliminateOptionPayload struct {
	DuelID string `json:"duel_id"`
	Option string `json:"option"`
}

type TriggerSabotagePayload struct {
	DuelID string `json:"duel_id"`
	Kind   string `json:"kind"`
}

// Server Messages (outgoing)

type QueueUpdatePayload struct {
	QueueToken string `json:"queue_token"`
	Status     string `json:"status"`
	Position   int    `json:"position"`
}

type DuelFoundPayload struct {
	DuelID             string   `json:"duel_id"`
	Mode               string   `json:"mode"`
	Preset             string   `json:"preset"`
	Role               string   `json:"role"`
	Players            []Player `json:"players"`
	QuestionCount      int      `json:"question_count"`
	PerQuestionSeconds int      `json:"per_question_seconds"`
	Seed               string   `json:"seed"`
}

type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type AnswerAckPayload struct {
	DuelID           string  `json:"duel_id"`
	QuestionIndex    int     `json:"question_index"`
	Accepted         bool    `json:"accepted"`
	Correct          bool    `json:"correct"`
	Late             bool    `json:"late"`
	Points           float64 `json:"points"`
	ServerReceivedAt string  `json:"server_received_at"`
}

type SabotagePayload struct {
	DuelID    string `json:"duel_id"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	ExpiresAt string `json:"expires_at"`
}

type DuelCompletePayload struct {
	DuelID  string       `json:"duel_id"`
	Winner  string       `json:"winner,omitempty"` // role; empty on a draw
	Draw    bool         `json:"draw"`
	Results []DuelResult `json:"results"`
}

type DuelResult struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Correct     int     `json:"correct"`
	Answered    int     `json:"answered"`
	Accuracy    int     `json:"accuracy"`
	SuccessRate int     `json:"success_rate"`
}

type LeaderboardUpdatePayload struct {
	Window string             `json:"window"`
	Top    []LeaderboardEntry `json:"top"`
	DuelID string             `json:"duel_id"`
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
	Wins        int     `json:"wins"`
	Games       int     `json:"games"`
	Accuracy    float64 `json:"accuracy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
