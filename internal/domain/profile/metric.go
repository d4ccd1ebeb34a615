package profile

import (
	"encoding/json"
	"math"
)

// Metric is one radar axis: the scaled value plus a display string of the
// unscaled quantity.
type Metric struct {
	Metric   string
	Value    float64
	FullMark float64
	Raw      string
}

// IsFinite reports whether Value can be plotted.
func (m Metric) IsFinite() bool {
	return !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0)
}

type metricJSON struct {
	Metric   string   `json:"metric"`
	Value    *float64 `json:"value"`
	FullMark float64  `json:"fullMark"`
	Raw      string   `json:"raw"`
	Finite   bool     `json:"finite"`
}

// MarshalJSON writes a non-finite value as null with finite=false, since JSON
// cannot carry NaN or Inf.
func (m Metric) MarshalJSON() ([]byte, error) {
	out := metricJSON{Metric: m.Metric, FullMark: m.FullMark, Raw: m.Raw, Finite: m.IsFinite()}
	if out.Finite {
		v := m.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null value back as NaN.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var in metricJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.Metric, m.FullMark, m.Raw = in.Metric, in.FullMark, in.Raw
	m.Value = math.NaN()
	if in.Value != nil {
		m.Value = *in.Value
	}
	return nil
}
