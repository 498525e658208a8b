package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// Model output is either a bare array of signals or an object wrapping one
// under "signals". Code fences around the JSON are tolerated.
const signalSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "token_symbol": {"type": "string", "minLength": 1},
      "direction": {"type": "string", "enum": ["buy", "sell", "hold"]}
    },
    "required": ["token_symbol", "direction"]
  }
}`

var signalSchema = jsonschema.MustCompileString("schema.json", signalSchemaJSON)

// ParseSignals extracts trading signals from a model response.
func ParseSignals(raw string) ([]Signal, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("model response is not valid JSON")
	}

	payload := gjson.Parse(cleaned)
	if payload.IsObject() {
		if inner := payload.Get("signals"); inner.IsArray() {
			payload = inner
		}
	}
	if !payload.IsArray() {
		return nil, fmt.Errorf("model response carries no signal array")
	}

	var doc any
	if err := json.Unmarshal([]byte(payload.Raw), &doc); err != nil {
		return nil, err
	}
	if err := signalSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("signal payload failed schema validation: %w", err)
	}

	var out []Signal
	payload.ForEach(func(_, item gjson.Result) bool {
		out = append(out, Signal{
			Symbol:    strings.ToUpper(strings.TrimSpace(item.Get("token_symbol").String())),
			Direction: Direction(strings.ToLower(strings.TrimSpace(item.Get("direction").String()))),
		})
		return true
	})
	return out, nil
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
