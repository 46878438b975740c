package parse

import (
	"errors"
	"testing"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Event
	}{
		{"begin forward", "[BEGIN FORWARD]: net#fc", Event{Kind: KindModuleBegin, Name: "net#fc"}},
		{"end backward", "[END BACKWARD]: net_backward", Event{Kind: KindModuleEnd, Name: "net_backward"}},
		{"begin backward historical tag", "[BEGINE BACKWARD]: net_backward", Event{Kind: KindModuleBegin, Name: "net_backward"}},
		{"op begin", "[START_SYMBOL]: aten.add.Tensor", Event{Kind: KindOpBegin, Name: "aten.add.Tensor"}},
		{"op end", "[END_SYMBOL]: aten.add.Tensor", Event{Kind: KindOpEnd, Name: "aten.add.Tensor"}},
		{"duration takes last token", "DURATION: kernel 12.25", Event{Kind: KindDuration, Value: 12.25}},
		{"iteration marker", "iteration 3, learning rate 0.01, loss 1.9", Event{Kind: KindIterationMark}},
		{"marker wins over other tags", "loss iteration learning [START_SYMBOL]: x", Event{Kind: KindIterationMark}},
		{"unrecognized", "some engine chatter", Event{Kind: KindOther}},
		{"empty", "", Event{Kind: KindOther}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLine(tt.line)
			if err != nil {
				t.Fatalf("decodeLine(%q) error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Fatalf("decodeLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDecodeLineMalformedDuration(t *testing.T) {
	_, err := decodeLine("DURATION: not-a-number")
	if !errors.Is(err, ErrMalformedDuration) {
		t.Fatalf("err = %v, want ErrMalformedDuration", err)
	}
}
