package entity

import "strings"

type Phase string

const (
	PhaseConsultation Phase = "consultation"
	PhaseVisit        Phase = "visit"
	PhaseClosed       Phase = "closed"
)

// NextPhase returns the phase in which the patient's next action is owed.
func NextPhase(p *Patient) Phase {
	if p.IsTerminal() {
		return PhaseClosed
	}
	return p.CurrentPhase()
}

var consultationTransitions = map[ConsultStatus][]ConsultStatus{
	StatusNew:            {StatusCallbackNeeded, StatusAbsent, StatusPotential, StatusReserved, StatusVIP},
	StatusCallbackNeeded: {StatusAbsent, StatusPotential, StatusReserved, StatusVIP},
	StatusAbsent:         {StatusCallbackNeeded, StatusPotential, StatusReserved, StatusVIP},
	StatusPotential:      {StatusCallbackNeeded, StatusAbsent, StatusReserved, StatusVIP},
	StatusVIP:            {StatusCallbackNeeded, StatusAbsent, StatusPotential, StatusReserved},
	StatusReserved:       {StatusReReserved, StatusCallbackNeeded, StatusAbsent},
	StatusReReserved:     {StatusReserved, StatusCallbackNeeded, StatusAbsent},
}

var visitTransitions = map[PostVisitStatus][]PostVisitStatus{
	PostVisitNone:                {PostVisitTreatmentAgreed, PostVisitTreatmentStarted, PostVisitCallbackNeededAgain},
	PostVisitCallbackNeededAgain: {PostVisitTreatmentAgreed, PostVisitTreatmentStarted},
	PostVisitTreatmentAgreed:     {PostVisitTreatmentStarted, PostVisitCallbackNeededAgain},
	PostVisitTreatmentStarted:    {},
}

// CanTransition reports whether a status may move from one value to another
// inside phase. Any active state may close; a closed record may only return
// to an active state of the same phase (reopen). This is the table-level rule
// only: which active state a reopen lands on is fixed by Patient.Reopen, which
// restores the state recorded at close, and the status mutators refuse closed
// records outright.
func CanTransition(from, to string, phase Phase) bool {
	if from == to {
		return false
	}
	switch phase {
	case PhaseConsultation:
		f, t := ConsultStatus(from), ConsultStatus(to)
		if t == StatusClosed {
			return f != StatusClosed
		}
		if f == StatusClosed {
			return isActiveConsultStatus(t)
		}
		for _, next := range consultationTransitions[f] {
			if next == t {
				return true
			}
		}
	case PhaseVisit:
		f, t := PostVisitStatus(from), PostVisitStatus(to)
		if t == PostVisitClosed {
			return f != PostVisitClosed
		}
		if f == PostVisitClosed {
			_, ok := visitTransitions[t]
			return ok
		}
		for _, next := range visitTransitions[f] {
			if next == t {
				return true
			}
		}
	}
	return false
}

func isActiveConsultStatus(s ConsultStatus) bool {
	_, ok := consultationTransitions[s]
	return ok
}

// CanonicalState is the single-dimension stage a record occupies across
// both phases.
type CanonicalState string

const (
	StageConsulting      CanonicalState = "consulting"
	StageReserved        CanonicalState = "reserved"
	StageVisited         CanonicalState = "visited"
	StageTreatmentBooked CanonicalState = "treatment_booked"
	StageTreatment       CanonicalState = "treatment"
	StageClosed          CanonicalState = "closed"
)

var CanonicalStates = []CanonicalState{
	StageConsulting, StageReserved, StageVisited, StageTreatmentBooked, StageTreatment, StageClosed,
}

var consultLabels = map[string]ConsultStatus{
	"":      StatusNew,
	"신규":    StatusNew,
	"잠재고객":  StatusPotential,
	"콜백필요":  StatusCallbackNeeded,
	"부재중":   StatusAbsent,
	"vip":   StatusVIP,
	"예약확정":  StatusReserved,
	"재예약확정": StatusReReserved,
	"종결":    StatusClosed,
}

var postVisitLabels = map[string]PostVisitStatus{
	"":      PostVisitNone,
	"치료동의":  PostVisitTreatmentAgreed,
	"치료시작":  PostVisitTreatmentStarted,
	"재콜백필요": PostVisitCallbackNeededAgain,
	"종결":    PostVisitClosed,
}

var callbackLabels = map[string]CallbackStatus{
	"예정":   CallbackScheduled,
	"완료":   CallbackCompleted,
	"취소":   CallbackCancelled,
	"종결":   CallbackCompleted,
	"부재중":  CallbackCompleted,
	"예약확정": CallbackCompleted,
}

// ParseConsultStatus accepts both stored codes and the Korean labels used by
// older records.
func ParseConsultStatus(s string) (ConsultStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := consultLabels[key]; ok {
		return st, true
	}
	st := ConsultStatus(strings.ReplaceAll(key, "-", "_"))
	if isActiveConsultStatus(st) || st == StatusClosed {
		return st, true
	}
	return StatusCallbackNeeded, false
}

func ParsePostVisitStatus(s string) (PostVisitStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := postVisitLabels[key]; ok {
		return st, true
	}
	st := PostVisitStatus(strings.ReplaceAll(key, "-", "_"))
	if _, ok := visitTransitions[st]; ok || st == PostVisitClosed {
		return st, true
	}
	return PostVisitNone, false
}

// ParseCallbackStatus treats unknown values as still scheduled so they keep
// surfacing in the work queues.
func ParseCallbackStatus(s string) (CallbackStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := callbackLabels[key]; ok {
		return st, true
	}
	switch CallbackStatus(key) {
	case CallbackScheduled, CallbackCompleted, CallbackCancelled:
		return CallbackStatus(key), true
	}
	return CallbackScheduled, false
}

// MapLegacyStatus folds the single-status representation into a canonical
// stage. It is total: unknown values fall back to the earliest active stage
// of the governing phase and report known=false.
func MapLegacyStatus(status string, visitConfirmed bool, postVisitStatus string, isCompleted bool) (CanonicalState, bool) {
	ps, psKnown := ParseConsultStatus(status)
	pv, pvKnown := ParsePostVisitStatus(postVisitStatus)

	if isCompleted || (psKnown && ps == StatusClosed) || (pvKnown && pv == PostVisitClosed) {
		return StageClosed, true
	}

	if visitConfirmed {
		if !pvKnown {
			return StageVisited, false
		}
		switch pv {
		case PostVisitTreatmentStarted:
			return StageTreatment, true
		case PostVisitTreatmentAgreed:
			return StageTreatmentBooked, true
		default:
			return StageVisited, true
		}
	}

	if !psKnown {
		return StageConsulting, false
	}
	switch ps {
	case StatusReserved, StatusReReserved:
		return StageReserved, true
	default:
		return StageConsulting, true
	}
}

// StageOf derives the canonical stage of a current record.
func StageOf(p *Patient) CanonicalState {
	stage, _ := MapLegacyStatus(string(p.Status), p.VisitConfirmed, string(p.PostVisitStatus), p.IsCompleted)
	return stage
}
