package logger

import (
	"hash/fnv"
)

// CardSampler decides, per trace id, whether an emitted Card is written to the
// diagnostics log. The decision is deterministic so a turn is logged entirely or not at all.
type CardSampler struct {
	log  ILogger
	rate float64
}

func NewCardSampler(log ILogger, rate float64) *CardSampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &CardSampler{log: log, rate: rate}
}

// Sampled reports whether the trace falls inside the sample
func (s *CardSampler) Sampled(traceId string) bool {
	if s == nil || s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(traceId))
	return float64(h.Sum32()%10000)/10000.0 < s.rate
}

// Record logs the card diagnostics when the trace is sampled
func (s *CardSampler) Record(traceId string, details map[string]interface{}) {
	if !s.Sampled(traceId) {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["trace_id"] = traceId
	s.log.Info("CardDiagnostics", "Card emitted", details)
}
