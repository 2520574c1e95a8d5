package reply

import "encoding/json"

// Format is the discriminant of an Outcome. A format declared by the model
// through a response tag is carried verbatim, so values outside the
// well-known set below can appear.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatTextSQL Format = "text+sql"
)

// Outcome is the structured result of classifying one model reply.
type Outcome struct {
	Format        Format
	SQL           string
	Visualization json.RawMessage
	Text          string
	ChartType     string
}

// HasSQL reports whether the outcome carries a query the caller may run.
func (o Outcome) HasSQL() bool {
	return o.SQL != ""
}

// wireOutcome is the field-stable JSON shape consumed by the UI.
type wireOutcome struct {
	GeneratedSQL   string          `json:"generatedSQL,omitempty"`
	Visualization  json.RawMessage `json:"visualization,omitempty"`
	TextResponse   *string         `json:"textResponse,omitempty"`
	ResponseFormat Format          `json:"responseFormat"`
	ChartType      string          `json:"chartType,omitempty"`
}

// MarshalJSON emits textResponse whenever the format promises prose, even
// when the prose is empty, so a degraded reply still renders.
func (o Outcome) MarshalJSON() ([]byte, error) {
	w := wireOutcome{
		GeneratedSQL:   o.SQL,
		Visualization:  o.Visualization,
		ResponseFormat: o.Format,
		ChartType:      o.ChartType,
	}
	if o.Text != "" || o.Format == FormatText || o.Format == FormatTextSQL {
		text := o.Text
		w.TextResponse = &text
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire shape back, mainly for clients and tests.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var w wireOutcome
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Outcome{
		Format:        w.ResponseFormat,
		SQL:           w.GeneratedSQL,
		Visualization: w.Visualization,
		ChartType:     w.ChartType,
	}
	if w.TextResponse != nil {
		o.Text = *w.TextResponse
	}
	return nil
}
