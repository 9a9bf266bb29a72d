package pipeline

import "time"

// StageResult is the outcome of one stage in a run.
type StageResult struct {
	Name     string
	Required bool
	Success  bool
	Result   any
	Err      error
	Duration time.Duration
	Warnings []string
	Attempts int
}

// Overall is the aggregate outcome of a run. Errors holds a *StageError
// for the required stage that stopped the run; optional failures appear
// only in their StageResult.
type Overall struct {
	Success  bool
	Errors   []error
	Warnings []string
}

// RunResult is created fresh by each Execute call.
type RunResult struct {
	Stages      []StageResult
	Overall     Overall
	TotalStages int
	StartedAt   time.Time
	Duration    time.Duration
}

// Stage returns the result for the named stage, if it ran.
func (r *RunResult) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Stats is derived from the per-stage results of a run.
type Stats struct {
	TotalStages      int
	ExecutedStages   int
	SuccessfulStages int
	FailedStages     int
	TotalDuration    time.Duration
	AverageDuration  time.Duration
	// SuccessRate is a percentage of executed stages; 0 when none ran.
	SuccessRate float64
}

// Stats computes run statistics.
func (r *RunResult) Stats() Stats {
	s := Stats{
		TotalStages:    r.TotalStages,
		ExecutedStages: len(r.Stages),
	}
	for _, st := range r.Stages {
		if st.Success {
			s.SuccessfulStages++
		} else {
			s.FailedStages++
		}
		s.TotalDuration += st.Duration
	}
	if s.ExecutedStages > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(s.ExecutedStages)
		s.SuccessRate = float64(s.SuccessfulStages) / float64(s.ExecutedStages) * 100
	}
	return s
}
