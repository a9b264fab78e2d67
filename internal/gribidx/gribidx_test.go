package gribidx

import (
	"strings"
	"testing"
)

const sample = `1:0:date=2023010100:10u:10 m above ground:anl
2:1048576:date=2023010100:10v:10 m above ground:anl
3:2097152:date=2023010100:prmsl:mean sea level:anl
4:3145728:date=2023010100:prate:surface:0-3 hour acc fcst
`

func TestParseAndRangesFor(t *testing.T) {
	idx, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Records()) != 4 {
		t.Fatalf("got %d records, want 4", len(idx.Records()))
	}

	ranges := idx.RangesFor([]string{"10u", "prmsl"})
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 1048575 {
		t.Errorf("10u range = %+v, want {0 1048575}", ranges[0])
	}
	if ranges[1].Start != 2097152 || ranges[1].End != 3145727 {
		t.Errorf("prmsl range = %+v, want {2097152 3145727}", ranges[1])
	}
}

func TestRangesForLastRecordIsOpenEnded(t *testing.T) {
	idx, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ranges := idx.RangesFor([]string{"prate"})
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if ranges[0].End != -1 {
		t.Errorf("last record End = %d, want -1 (open-ended)", ranges[0].End)
	}
}

func TestRangesForNoMatch(t *testing.T) {
	idx, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranges := idx.RangesFor([]string{"nonexistent"}); len(ranges) != 0 {
		t.Errorf("got %d ranges, want 0", len(ranges))
	}
}

func TestParseMalformedLine(t *testing.T) {
	if _, err := Parse(strings.NewReader("not-an-idx-line")); err == nil {
		t.Error("expected error parsing malformed line")
	}
}
