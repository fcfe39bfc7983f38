package jsontime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationMarshal(t *testing.T) {
	tests := []struct {
		name string
		d    Duration
		want string
	}{
		{"zero", Duration(0), `"0s"`},
		{"seconds", Duration(5 * time.Second), `"5s"`},
		{"fractional", Duration(2500 * time.Millisecond), `"2.5s"`},
		{"compound", Duration(90 * time.Second), `"1m30s"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.d)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Marshal = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Duration
	}{
		{"string", `"1m30s"`, Duration(90 * time.Second)},
		{"nanos", `5000000000`, Duration(5 * time.Second)},
		{"null_keeps_zero", `null`, Duration(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			if err := json.Unmarshal([]byte(tt.input), &d); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if d != tt.want {
				t.Errorf("Unmarshal = %v, want %v", d, tt.want)
			}
		})
	}

	var d Duration
	if err := json.Unmarshal([]byte(`"not a duration"`), &d); err == nil {
		t.Error("Unmarshal accepted a malformed duration string")
	}
}

func TestMilliRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	b, err := json.Marshal(Milli(now))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Milli
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Time().Equal(now) {
		t.Errorf("round trip = %v, want %v", got.Time(), now)
	}
}

func TestMilliInStruct(t *testing.T) {
	type event struct {
		At Milli `json:"at"`
	}
	e := event{At: Milli(time.UnixMilli(1700000000000))}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"at":1700000000000}` {
		t.Errorf("Marshal = %s", b)
	}
}
