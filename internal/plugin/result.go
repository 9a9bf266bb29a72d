package plugin

// PluginSuccess is the outcome of a plugin that executed without error.
type PluginSuccess struct {
	Plugin string
	Result any
}

// PluginFailure is the outcome of a plugin whose Initialize or Execute
// failed.
type PluginFailure struct {
	Plugin string
	Err    error
}

// ExecutionResult aggregates plugin outcomes for one pass, or across the
// phases of a generation run once merged.
type ExecutionResult struct {
	Success  []PluginSuccess
	Failed   []PluginFailure
	Warnings []string
}

// Merge appends other's outcomes to r. A nil other is a no-op.
func (r *ExecutionResult) Merge(other *ExecutionResult) {
	if other == nil {
		return
	}
	r.Success = append(r.Success, other.Success...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// SuccessNames returns the names of successful plugins in execution order.
func (r *ExecutionResult) SuccessNames() []string {
	names := make([]string, 0, len(r.Success))
	for _, s := range r.Success {
		names = append(names, s.Plugin)
	}
	return names
}

// FailedNames returns the names of failed plugins in execution order.
func (r *ExecutionResult) FailedNames() []string {
	names := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		names = append(names, f.Plugin)
	}
	return names
}

// Succeeded reports whether the pass recorded no failures.
func (r *ExecutionResult) Succeeded() bool {
	return len(r.Failed) == 0
}
