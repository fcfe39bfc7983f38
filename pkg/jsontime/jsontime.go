// Package jsontime provides time types with stable JSON encodings:
// Duration as a human-readable string ("2.5s") and Milli as Unix
// milliseconds. They keep transcription segments, session manifests
// and caption events readable from jq and browsers alike.
package jsontime

import (
	"encoding/json"
	"time"
)

// Duration is a time.Duration that marshals to its string form and
// unmarshals from either a string or nanoseconds.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		dur, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(dur)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(b, &ns); err != nil {
		return err
	}
	*d = Duration(ns)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Seconds returns the duration in seconds.
func (d Duration) Seconds() float64 { return time.Duration(d).Seconds() }

// String returns the duration in time.Duration string form.
func (d Duration) String() string { return time.Duration(d).String() }

// Milli is a time.Time that marshals to Unix milliseconds.
type Milli time.Time

// NowMilli returns the current time as Milli.
func NowMilli() Milli { return Milli(time.Now()) }

// MarshalJSON implements json.Marshaler.
func (m Milli) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UnixMilli())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Milli) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*m = Milli(time.UnixMilli(ms))
	return nil
}

// Time returns the underlying time.Time.
func (m Milli) Time() time.Time { return time.Time(m) }

// IsZero reports whether m is the zero instant.
func (m Milli) IsZero() bool { return time.Time(m).IsZero() }

// Sub returns the duration m-other.
func (m Milli) Sub(other Milli) time.Duration {
	return time.Time(m).Sub(time.Time(other))
}

// String formats m like time.Time.
func (m Milli) String() string { return time.Time(m).String() }
