package model

import (
	"strconv"
	"time"
)

// Timestamp is a time serialized to JSON as unix seconds.
type Timestamp time.Time

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time().IsZero() {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatInt(t.Time().Unix(), 10)), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	ts, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}

	if ts == 0 {
		*t = Timestamp{}
		return nil
	}

	*t = Timestamp(time.Unix(ts, 0).UTC())
	return nil
}
