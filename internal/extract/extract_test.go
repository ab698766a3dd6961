package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raws(ss ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(ss))
	for i, s := range ss {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestDecoders_Order(t *testing.T) {
	var names []string
	for _, d := range Decoders() {
		names = append(names, d.Name)
	}
	want := []string{
		DecoderArray, DecoderItemsField, DecoderDataField, DecoderOrdersField,
		DecoderSingleObject, DecoderNestedScan, DecoderStringEncoded, DecoderChatCompletion,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("decoder order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDecoder string
		wantItems   []json.RawMessage
		wantSession string
	}{
		{
			name:        "bare array used verbatim",
			body:        `[{"item_name":"Round table","quantity":12}, "odd", 3]`,
			wantDecoder: DecoderArray,
			wantItems:   raws(`{"item_name":"Round table","quantity":12}`, `"odd"`, `3`),
			wantSession: DefaultSessionID,
		},
		{
			name:        "items field",
			body:        `{"session_id":"s-1","items":[{"a":1},{"b":2}],"data":[{"c":3}]}`,
			wantDecoder: DecoderItemsField,
			wantItems:   raws(`{"a":1}`, `{"b":2}`),
			wantSession: "s-1",
		},
		{
			name:        "data field",
			body:        `{"sessionId":"s-2","data":[{"c":3}]}`,
			wantDecoder: DecoderDataField,
			wantItems:   raws(`{"c":3}`),
			wantSession: "s-2",
		},
		{
			name:        "orders field",
			body:        `{"session_id":"s-3","orders":[{"order_id":"o-1"}]}`,
			wantDecoder: DecoderOrdersField,
			wantItems:   raws(`{"order_id":"o-1"}`),
			wantSession: "s-3",
		},
		{
			name:        "empty items ends the chain",
			body:        `{"session_id":"s-4","items":[],"attachments":[{"order_id":"A1"}]}`,
			wantDecoder: DecoderItemsField,
			wantItems:   []json.RawMessage{},
			wantSession: "s-4",
		},
		{
			name:        "empty data wins over orders",
			body:        `{"session_id":"s-4","data":[],"orders":[{"order_id":"A1"}]}`,
			wantDecoder: DecoderDataField,
			wantItems:   []json.RawMessage{},
			wantSession: "s-4",
		},
		{
			name:        "empty orders skips single object",
			body:        `{"orders":[],"order_id":"A1","warnings":["nothing parsed"]}`,
			wantDecoder: DecoderOrdersField,
			wantItems:   []json.RawMessage{},
			wantSession: DefaultSessionID,
		},
		{
			name:        "empty items still reads chat content",
			body:        `{"session_id":"s-4","items":[],"choices":[{"message":{"content":"[{\"item_name\":\"Linen\"}]"}}]}`,
			wantDecoder: DecoderChatCompletion,
			wantItems:   raws(`{"item_name":"Linen"}`),
			wantSession: "s-4",
		},
		{
			name:        "items that is not an array falls through",
			body:        `{"session_id":"s-4","items":"none","lines":[{"x":1}]}`,
			wantDecoder: DecoderNestedScan,
			wantItems:   raws(`{"x":1}`),
			wantSession: "s-4",
		},
		{
			name:        "single grouped order",
			body:        `{"session_id":"s-5","venue_name":"The Grand Hotel","item_quantities":{"Chair":100},"items":["Chair"]}`,
			wantDecoder: DecoderSingleObject,
			wantItems:   raws(`{"session_id":"s-5","venue_name":"The Grand Hotel","item_quantities":{"Chair":100},"items":["Chair"]}`),
			wantSession: "s-5",
		},
		{
			name:        "order-like object",
			body:        `{"order_id":"A-9","client_name":"Tech Corp Gala"}`,
			wantDecoder: DecoderSingleObject,
			wantItems:   raws(`{"order_id":"A-9","client_name":"Tech Corp Gala"}`),
			wantSession: DefaultSessionID,
		},
		{
			name:        "nested scan takes the first non-empty array in document order",
			body:        `{"session_id":"s-6","meta":{"k":1},"empty":[],"zeta":[{"z":1}],"alpha":[{"a":1}]}`,
			wantDecoder: DecoderNestedScan,
			wantItems:   raws(`{"z":1}`),
			wantSession: "s-6",
		},
		{
			name:        "string encoded array",
			body:        `"[{\"order_name\":\"Smith Wedding\"}]"`,
			wantDecoder: DecoderStringEncoded,
			wantItems:   raws(`{"order_name":"Smith Wedding"}`),
			wantSession: DefaultSessionID,
		},
		{
			name:        "string encoded object with items",
			body:        `"{\"items\":[{\"q\":1}]}"`,
			wantDecoder: DecoderStringEncoded,
			wantItems:   raws(`{"q":1}`),
			wantSession: DefaultSessionID,
		},
		{
			name:        "chat completion content",
			body:        `{"session_id":"s-7","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"items\":[{\"item_name\":\"Linen\"}]}"}}]}`,
			wantDecoder: DecoderChatCompletion,
			wantItems:   raws(`{"item_name":"Linen"}`),
			wantSession: "s-7",
		},
		{
			name:        "chat completion fenced content",
			body:        "{\"choices\":[{\"message\":{\"content\":\"```json\\n[{\\\"n\\\":1}]\\n```\"}}]}",
			wantDecoder: DecoderChatCompletion,
			wantItems:   raws(`{"n":1}`),
			wantSession: DefaultSessionID,
		},
		{
			name:        "nothing recognisable",
			body:        `{"session_id":"s-8","status":"ok","count":0}`,
			wantDecoder: "",
			wantItems:   []json.RawMessage{},
			wantSession: "s-8",
		},
		{
			name:        "empty array",
			body:        `[]`,
			wantDecoder: DecoderArray,
			wantItems:   []json.RawMessage{},
			wantSession: DefaultSessionID,
		},
		{
			name:        "numeric session id",
			body:        `{"session_id":42,"items":[1]}`,
			wantDecoder: DecoderItemsField,
			wantItems:   raws(`1`),
			wantSession: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDecoder, res.Decoder)
			assert.Equal(t, tt.wantSession, res.SessionID)
			assert.Equal(t, tt.wantSession == DefaultSessionID, res.SessionDefaulted)
			if diff := cmp.Diff(tt.wantItems, res.Items); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_InvalidJSON(t *testing.T) {
	for _, body := range []string{"", "   ", "{not json", `{"a":1}{"b":2}`} {
		_, err := Extract([]byte(body))
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("Extract(%q) error = %v, want ErrInvalidJSON", body, err)
		}
	}
}

func TestBody_KeysKeepOrder(t *testing.T) {
	res, err := Extract([]byte(`{"z":1,"a":2,"m":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, res.Body.Keys())
	assert.Equal(t, KindObject, res.Body.Kind)
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		`null`: false, `false`: false, `0`: false, `0.0`: false, `""`: false,
		`true`: true, `1`: true, `"x"`: true, `[]`: true, `{}`: true,
	}
	for in, want := range cases {
		assert.Equal(t, want, truthy(json.RawMessage(in)), in)
	}
}

func TestExtractLoose(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems []json.RawMessage
	}{
		{"items array", `{"session_id":"s","items":[{"a":1}]}`, raws(`{"a":1}`)},
		{"chatgpt output string", `{"chatgpt_output":"[{\"b\":2},{\"c\":3}]"}`, raws(`{"b":2}`, `{"c":3}`)},
		{"message object with data", `{"message":{"data":[{"d":4}]}}`, raws(`{"d":4}`)},
		{"whole body wrapped", `{"order_id":"o-1"}`, raws(`{"order_id":"o-1"}`)},
		{"non json text kept", `{"content":"sorry, no orders here"}`, raws(`"sorry, no orders here"`)},
		{"empty items array", `{"items":[]}`, []json.RawMessage{}},
		{"scalar body", `7`, []json.RawMessage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractLoose([]byte(tt.body))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.wantItems, res.Items); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
