package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentEngine  = "engine"
	ComponentRecords = "records"
	ComponentLedger  = "ledger"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine   Pinger
	optional map[string]Pinger
}

// New creates a Service. records and ledger can be nil.
func New(engine, records, ledger Pinger) *Service {
	optional := map[string]Pinger{}
	if records != nil {
		optional[ComponentRecords] = records
	}
	if ledger != nil {
		optional[ComponentLedger] = ledger
	}
	return &Service{engine: engine, optional: optional}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentEngine: result(s.engine.Ping(ctx))}
	for name, p := range s.optional {
		checks[name] = result(p.Ping(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentEngine] == CheckError {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
