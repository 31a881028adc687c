package wire

import (
	"reflect"
	"testing"

	"github.com/antigravity/transitcore/internal/query"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := query.Path{
		Items: []query.PathItem{
			{StopArea: 0, Seconds: 8000, Day: 0, LineID: 0},
			{StopArea: 1, Seconds: 8100, Day: 0, LineID: 0},
		},
		NbChanges: 0,
		Duration:  100,
	}
	got, err := Decode(Encode(p))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, p)
	}
}

func TestEncodeDecodeEmptyPath(t *testing.T) {
	got, err := Decode(Encode(query.Path{}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected an empty path, got %+v", got)
	}
}

func TestDecodeNegativeLineIDRoundTrips(t *testing.T) {
	p := query.Path{Items: []query.PathItem{{StopArea: 2, Seconds: 300, Day: 1, LineID: -1}}}
	got, err := Decode(Encode(p))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Items[0].LineID != -1 {
		t.Fatalf("LineID = %d, want -1", got.Items[0].LineID)
	}
}
