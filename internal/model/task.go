package model

// WorkerPhase names the state a worker is in.
type WorkerPhase string

const (
	PhaseBootstrapping        WorkerPhase = "bootstrapping"
	PhaseClicking             WorkerPhase = "clicking"
	PhaseQuestCompleting      WorkerPhase = "quest_completing"
	PhaseQuestLotteryDraining WorkerPhase = "quest_lottery_draining"
	PhaseScheduled            WorkerPhase = "scheduled"
	PhaseClaiming             WorkerPhase = "claiming"
	PhaseSpeedingUp           WorkerPhase = "speeding_up"
	PhaseLotterySpinning      WorkerPhase = "lottery_spinning"
	PhaseStopped              WorkerPhase = "stopped"
	PhaseFailed               WorkerPhase = "failed"
)

type WorkerState struct {
	Account       string      `json:"account"`
	Username      string      `json:"username,omitempty"`
	Phase         WorkerPhase `json:"phase"`
	Cycles        int         `json:"cycles"`
	NextClaimAtMs int64       `json:"nextClaimAtMs,omitempty"`
	LastClaimMs   int64       `json:"lastClaimMs,omitempty"`
	LastError     string      `json:"lastError,omitempty"`
	UpdatedAtMs   int64       `json:"updatedAtMs"`
}

type EngineState struct {
	RunID   string        `json:"runId"`
	Workers []WorkerState `json:"workers"`
}
