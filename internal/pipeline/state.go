package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"lingosub/internal/fileutil"
	"lingosub/internal/services"
)

// Stage is a pipeline state.
type Stage string

const (
	StageNotStarted           Stage = "not_started"
	StageExtractingAudio      Stage = "extracting_audio"
	StageTranscribing         Stage = "transcribing"
	StageBuildingSubtitles    Stage = "building_subtitles"
	StageTranslatingSubtitles Stage = "translating_subtitles"
	StagePackaging            Stage = "packaging"
	StageComplete             Stage = "complete"
	StageFailed               Stage = "failed"
)

var stageRank = map[Stage]int{
	StageNotStarted:           0,
	StageExtractingAudio:      1,
	StageTranscribing:         2,
	StageBuildingSubtitles:    3,
	StageTranslatingSubtitles: 4,
	StagePackaging:            5,
	StageComplete:             6,
}

// Stages lists the working stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageExtractingAudio,
		StageTranscribing,
		StageBuildingSubtitles,
		StageTranslatingSubtitles,
		StagePackaging,
	}
}

// Terminal reports whether no further transition is possible within a run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	if s == StageFailed {
		return true
	}
	_, ok := stageRank[s]
	return ok
}

// Status summarizes a run for listings.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// StageError is the persisted description of a fatal failure.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Hint    string `json:"hint,omitempty"`
}

// State is the persisted progress of a project's most recent run.
type State struct {
	RunID           string              `json:"runId,omitempty"`
	Stage           Stage               `json:"stage"`
	Status          Status              `json:"status"`
	Completed       map[Stage]time.Time `json:"completed,omitempty"`
	LastError       *StageError         `json:"lastError,omitempty"`
	FailedLanguages []string            `json:"failedLanguages,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
	StartedAt       time.Time           `json:"startedAt,omitzero"`
	UpdatedAt       time.Time           `json:"updatedAt,omitzero"`
	FinishedAt      time.Time           `json:"finishedAt,omitzero"`
}

// NewState returns the state of a project that has never run.
func NewState() State {
	return State{Stage: StageNotStarted, Status: StatusPending}
}

// ErrInvalidTransition reports a backwards or post-terminal stage move.
var ErrInvalidTransition = errors.New("invalid stage transition")

// Begin resets s for a new run.
func (s *State) Begin(runID string, now time.Time) {
	*s = State{
		RunID:     runID,
		Stage:     StageNotStarted,
		Status:    StatusRunning,
		Completed: map[Stage]time.Time{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves s forward to next. Moving backwards, repeating a stage or
// leaving a terminal stage returns ErrInvalidTransition.
func (s *State) Advance(next Stage, now time.Time) error {
	if s.Stage.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, s.Stage)
	}
	if next != StageFailed {
		to, ok := stageRank[next]
		if !ok {
			return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, next)
		}
		if to <= stageRank[s.Stage] {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, next)
		}
	}
	s.Stage = next
	s.UpdatedAt = now
	return nil
}

// MarkCompleted records that stage finished (or was already satisfied).
func (s *State) MarkCompleted(stage Stage, now time.Time) {
	if s.Completed == nil {
		s.Completed = map[Stage]time.Time{}
	}
	s.Completed[stage] = now
	s.UpdatedAt = now
}

// IsCompleted reports whether stage finished during the current run.
func (s State) IsCompleted(stage Stage) bool {
	_, ok := s.Completed[stage]
	return ok
}

// Fail moves s to the failed stage, keeping the stage that raised err.
func (s *State) Fail(stage Stage, err error, now time.Time) {
	d := services.Describe(err)
	message := strings.TrimSpace(d.Message)
	if message == "" {
		message = "stage failed"
	}
	s.LastError = &StageError{Stage: stage, Message: message, Kind: d.Kind, Hint: d.Hint}
	s.Stage = StageFailed
	s.Status = StatusFailed
	s.UpdatedAt = now
	s.FinishedAt = now
}

// Finish marks the run complete.
func (s *State) Finish(now time.Time) error {
	if err := s.Advance(StageComplete, now); err != nil {
		return err
	}
	s.Status = StatusComplete
	s.FinishedAt = now
	return nil
}

// AddFailedLanguages merges langs into the failed set, kept sorted.
func (s *State) AddFailedLanguages(langs ...string) {
	if len(langs) == 0 {
		return
	}
	set := make(map[string]struct{}, len(s.FailedLanguages)+len(langs))
	for _, lang := range s.FailedLanguages {
		set[lang] = struct{}{}
	}
	for _, lang := range langs {
		if lang = strings.TrimSpace(lang); lang != "" {
			set[lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	s.FailedLanguages = out
}

// AddWarning appends a non-fatal problem once.
func (s *State) AddWarning(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	for _, existing := range s.Warnings {
		if existing == msg {
			return
		}
	}
	s.Warnings = append(s.Warnings, msg)
}

// LoadState reads pipeline.json. A missing file yields NewState.
func LoadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), fmt.Errorf("read pipeline state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return NewState(), fmt.Errorf("decode pipeline state: %w", err)
	}
	if !st.Stage.Valid() {
		return NewState(), fmt.Errorf("decode pipeline state: unknown stage %q", st.Stage)
	}
	return st, nil
}

// SaveState persists st atomically.
func SaveState(path string, st State) error {
	if err := fileutil.WriteJSONAtomic(path, st); err != nil {
		return fmt.Errorf("persist pipeline state: %w", err)
	}
	return nil
}
