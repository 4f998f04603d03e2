package scaffold

import (
	"strconv"

	"github.com/rs/zerolog"
)

// Phase is one step of a scaffolding run
type Phase int

const (
	PhaseValidate Phase = iota + 1
	PhaseProject
	PhaseDataContext
	PhaseAuthorization
	PhaseEntities
	PhaseInfrastructure
)

var phaseNames = map[Phase]string{
	PhaseValidate:       "validate",
	PhaseProject:        "project",
	PhaseDataContext:    "data-context",
	PhaseAuthorization:  "authorization",
	PhaseEntities:       "entities",
	PhaseInfrastructure: "infrastructure",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Phase(" + strconv.Itoa(int(p)) + ")"
}

// Status receives progress events. It never influences generation.
type Status interface {
	PhaseStarted(phase Phase)
	PhaseCompleted(phase Phase, artifacts int)
	FileWritten(path string)
}

// LogStatus reports progress through a zerolog logger
type LogStatus struct {
	logger zerolog.Logger
}

// NewLogStatus creates a status sink logging to logger
func NewLogStatus(logger zerolog.Logger) *LogStatus {
	return &LogStatus{logger: logger.With().Str("component", "scaffold").Logger()}
}

func (s *LogStatus) PhaseStarted(phase Phase) {
	s.logger.Debug().Stringer("phase", phase).Msg("phase started")
}

func (s *LogStatus) PhaseCompleted(phase Phase, artifacts int) {
	s.logger.Info().Stringer("phase", phase).Int("artifacts", artifacts).Msg("phase completed")
}

func (s *LogStatus) FileWritten(path string) {
	s.logger.Debug().Str("path", path).Msg("file written")
}

// NopStatus discards every event
type NopStatus struct{}

func (NopStatus) PhaseStarted(Phase)        {}
func (NopStatus) PhaseCompleted(Phase, int) {}
func (NopStatus) FileWritten(string)        {}
