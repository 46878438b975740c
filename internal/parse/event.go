package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies one trace log line.
type Kind uint8

const (
	KindOther         Kind = iota // unrecognized, ignored
	KindModuleBegin               // [BEGIN FORWARD] / [BEGINE BACKWARD]
	KindModuleEnd                 // [END FORWARD] / [END BACKWARD]
	KindOpBegin                   // [START_SYMBOL]
	KindOpEnd                     // [END_SYMBOL]
	KindDuration                  // DURATION
	KindIterationMark             // iteration/learning/loss delimiter
)

// Event is one decoded log line.
type Event struct {
	Kind  Kind
	Name  string  // module path or operation name
	Value float64 // duration sample
}

// Log line tags, matched literally. The begin-backward spelling is
// historical; emitter and parser agree on it.
const (
	tagBeginForward  = "[BEGIN FORWARD]:"
	tagEndForward    = "[END FORWARD]:"
	tagBeginBackward = "[BEGINE BACKWARD]:"
	tagEndBackward   = "[END BACKWARD]:"
	tagOpBegin       = "[START_SYMBOL]:"
	tagOpEnd         = "[END_SYMBOL]:"
	tagDuration      = "DURATION:"
)

// isIterationMark reports whether a line is the session delimiter: any line
// carrying all three of "iteration", "learning" and "loss".
func isIterationMark(line string) bool {
	return strings.Contains(line, "iteration") &&
		strings.Contains(line, "learning") &&
		strings.Contains(line, "loss")
}

// decodeLine classifies one log line. Unrecognized lines come back as
// KindOther and are skipped by the parser; the only decode failure is a
// duration value that does not parse.
func decodeLine(line string) (Event, error) {
	if isIterationMark(line) {
		return Event{Kind: KindIterationMark}, nil
	}

	for _, tag := range [...]struct {
		prefix string
		kind   Kind
	}{
		{tagBeginForward, KindModuleBegin},
		{tagBeginBackward, KindModuleBegin},
		{tagEndForward, KindModuleEnd},
		{tagEndBackward, KindModuleEnd},
		{tagOpBegin, KindOpBegin},
		{tagOpEnd, KindOpEnd},
	} {
		if strings.HasPrefix(line, tag.prefix) {
			return Event{Kind: tag.kind, Name: strings.TrimSpace(line[len(tag.prefix):])}, nil
		}
	}

	if strings.HasPrefix(line, tagDuration) {
		fields := strings.Fields(line)
		raw := fields[len(fields)-1]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
		}
		return Event{Kind: KindDuration, Value: v}, nil
	}

	return Event{Kind: KindOther}, nil
}
