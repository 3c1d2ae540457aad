package protocol

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Encode marshals an outbound frame. The structs in this package cannot fail
// to marshal, so a failure is logged and reported as nil.
func Encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "protocol").Msg("encode frame")
		return nil
	}
	return b
}

// DecodeData reads the data object of a sync action into a field map.
// A missing or null data object decodes to an empty map.
func DecodeData(raw json.RawMessage) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
