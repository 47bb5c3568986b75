package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
)

// SampleTransformer implements Transformer using the domain parse and
// classify functions.
type SampleTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a SampleTransformer.
func NewTransformer(logger *slog.Logger) *SampleTransformer {
	return &SampleTransformer{logger: logger}
}

func (t *SampleTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ClassifiedSample, error) {
	s, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.ClassifiedSample{}, err
	}

	cs := domain.EnrichSample(s)
	t.logger.Debug("sample classified",
		"id", cs.ID,
		"region", cs.Region,
		"scenario", cs.Scenario,
		"year", cs.Year,
	)
	return cs, nil
}
