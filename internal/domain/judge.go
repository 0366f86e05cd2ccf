package domain

// JudgeKind is the discriminant of JudgeState.
type JudgeKind string

const (
	JudgeNominated JudgeKind = "Nominated"
	JudgeAccepted  JudgeKind = "Accepted"
	JudgeRefused   JudgeKind = "Refused"
	JudgeResolved  JudgeKind = "Resolved"
)

// JudgeState is monotonic except for the path
// Nominated -> {Accepted, Refused} -> Resolved(decision).
type JudgeState struct {
	Kind     JudgeKind
	Decision *bool // set only when Kind == JudgeResolved
}

func Nominated() JudgeState { return JudgeState{Kind: JudgeNominated} }
func Accepted() JudgeState  { return JudgeState{Kind: JudgeAccepted} }
func Refused() JudgeState   { return JudgeState{Kind: JudgeRefused} }

func JudgeDecided(decision bool) JudgeState {
	return JudgeState{Kind: JudgeResolved, Decision: &decision}
}

// HasVoted reports whether the judge cast a final decision (I3: counted only
// if Resolved(·) and previously Accepted).
func (s JudgeState) HasVoted() bool {
	return s.Kind == JudgeResolved
}

// Judge is a (prediction, user) record tracking one nominee's participation.
type Judge struct {
	PredictionID RowId      `json:"prediction_id" db:"prediction_id"`
	User         PubKey     `json:"user"           db:"user_pubkey"`
	State        JudgeState `json:"state"          db:"-"`
}

// JudgePublic is the API-safe view of a judge omitting nothing sensitive —
// kept distinct from Judge so listing endpoints can evolve independently of
// the storage row.
type JudgePublic struct {
	PredictionID RowId      `json:"prediction_id"`
	User         PubKey     `json:"user"`
	State        JudgeState `json:"state"`
}
