package fetch

import (
	"encoding/json"
	"errors"
)

// SourceKind identifies which API an image came from.
type SourceKind int

const (
	SourceAPOD SourceKind = iota
	SourceEPIC
	SourceSpaceX
)

func (k SourceKind) String() string {
	switch k {
	case SourceAPOD:
		return "apod"
	case SourceEPIC:
		return "epic"
	case SourceSpaceX:
		return "spacex"
	}

	return ""
}

// ParseSourceKind is the inverse of SourceKind.String
func ParseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "apod":
		return SourceAPOD, nil
	case "epic":
		return SourceEPIC, nil
	case "spacex":
		return SourceSpaceX, nil
	}

	return 0, errors.New("invalid source kind")
}

func (k SourceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *SourceKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseSourceKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ImageRecord describes one image resolved by a source adapter.
//
// LocalPath is only set once the image has been written to disk.
type ImageRecord struct {
	SourceURL string     `json:"source_url"`
	LocalPath string     `json:"local_path"`
	Index     int        `json:"index"`
	Kind      SourceKind `json:"kind"`
}

// Outcome is the result of processing a single item in a batch.
type Outcome struct {
	Record ImageRecord
	Err    error
}

// OK reports whether the item was downloaded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Summarize counts successful and failed outcomes.
func Summarize(outcomes []Outcome) (ok, failed int) {
	for _, o := range outcomes {
		if o.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
