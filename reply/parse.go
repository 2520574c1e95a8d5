package reply

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/applog"
)

// Parse classifies one model reply. It never fails: a reply with nothing
// recognizable becomes an empty text outcome.
//
// Precedence:
//  1. a generated_sql tag sets SQL and a tentative sql format;
//  2. a declared response format overrides the format, even over step 1;
//  3. json: the response body becomes the visualization;
//  4. text: the response body, minus one layer of quotes, becomes the text;
//  5. with no SQL yet, a ```sql block supplies it (format sql unless declared);
//  6. with neither tag present, the residual prose decides text, sql or text+sql.
func Parse(raw string) Outcome {
	return classify(Extract(raw), applog.Named("reply"))
}

func classify(c Candidates, log *zap.Logger) Outcome {
	var out Outcome

	if c.TaggedSQL != nil {
		out.SQL = strings.TrimSpace(c.TaggedSQL.Text)
		out.Format = FormatSQL
	}

	declared := c.Response != nil
	if declared {
		out.Format = c.Response.Format
	}

	switch {
	case declared && out.Format == FormatJSON:
		v, err := DecodeVisualization(c.Response.Text)
		switch {
		case errors.Is(err, ErrEmptyVisualization):
		case err != nil:
			log.Warn("malformed visualization json", zap.Error(err))
		default:
			out.Visualization = v.Raw
			out.ChartType = v.ChartType
		}
	case declared && out.Format == FormatText:
		out.Text = unquote(strings.TrimSpace(c.Response.Text))
	}

	if out.SQL == "" && c.FencedSQL != nil {
		out.SQL = c.FencedSQL.Text
		if !declared {
			out.Format = FormatSQL
		}
	}

	if c.TaggedSQL == nil && !declared {
		switch {
		case out.SQL == "":
			out.Format = FormatText
			out.Text = c.Residual
		default:
			if prose := stripFencedSQL(c.Residual); prose != "" {
				out.Format = FormatTextSQL
				out.Text = prose
			}
		}
	}

	return out
}

// unquote removes one pair of enclosing double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
