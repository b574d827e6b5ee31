package export

import (
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services/aggregate"
)

// Sink receives status, progress, warnings and the final result of an export.
type Sink interface {
	aggregate.Reporter
	OnDone(result *models.ExportResult)
}

// SinkFuncs adapts optional callbacks to a Sink. Nil fields are skipped.
type SinkFuncs struct {
	Status   func(msg string)
	Progress func(completed, total int)
	Warning  func(tenantName string)
	Done     func(result *models.ExportResult)
}

// OnStatus implements Sink.
func (s SinkFuncs) OnStatus(msg string) {
	if s.Status != nil {
		s.Status(msg)
	}
}

// OnProgress implements Sink.
func (s SinkFuncs) OnProgress(completed, total int) {
	if s.Progress != nil {
		s.Progress(completed, total)
	}
}

// OnWarning implements Sink.
func (s SinkFuncs) OnWarning(tenantName string) {
	if s.Warning != nil {
		s.Warning(tenantName)
	}
}

// OnDone implements Sink.
func (s SinkFuncs) OnDone(result *models.ExportResult) {
	if s.Done != nil {
		s.Done(result)
	}
}
