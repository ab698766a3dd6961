package extract

import (
	"encoding/json"
	"strings"
)

// outputKeys are the fields an automation step may put its model output under,
// checked in order.
var outputKeys = []string{"items", "data", "chatgpt_output", "message", "content"}

// ExtractLoose is the permissive variant used by the direct-to-database receiver:
// the model output is taken from the first truthy output field (or the whole body),
// JSON-decoded when it is a string, and a lone object is wrapped as one record. Text
// that is not JSON is kept as a single string record.
func ExtractLoose(raw []byte) (Result, error) {
	b, err := parseBody(raw)
	if err != nil {
		return Result{}, err
	}
	res := Result{Body: b, Items: []json.RawMessage{}}
	res.SessionID, res.SessionDefaulted = sessionID(b)

	output := json.RawMessage(b.Raw)
	for _, key := range outputKeys {
		if v, ok := b.Get(key); ok && truthy(v) {
			output = v
			break
		}
	}

	if s, ok := asString(output); ok {
		trimmed := strings.TrimSpace(stripFences(s))
		if !json.Valid([]byte(trimmed)) {
			res.Items = []json.RawMessage{output}
			res.Decoder = "raw-text"
			return res, nil
		}
		output = json.RawMessage(trimmed)
	}

	switch kindOf(output) {
	case KindArray:
		res.Items, _ = asArray(output)
		res.Decoder = DecoderArray
	case KindObject:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(output, &obj); err != nil {
			return res, nil
		}
		if arr, ok := asArray(obj["items"]); ok {
			res.Items, res.Decoder = arr, DecoderItemsField
		} else if arr, ok := asArray(obj["data"]); ok {
			res.Items, res.Decoder = arr, DecoderDataField
		} else {
			res.Items, res.Decoder = []json.RawMessage{output}, DecoderSingleObject
		}
	}
	if res.Items == nil {
		res.Items = []json.RawMessage{}
	}
	return res, nil
}
