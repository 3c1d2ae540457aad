package signal

import (
	"encoding/json"
	"errors"

	"github.com/Ayush94-1708/music-glass/internal/app/orch"
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return protocol.CodeRoomNotFound
	case errors.Is(err, domain.ErrAlreadyInRoom):
		return protocol.CodeAlreadyInRoom
	case errors.Is(err, domain.ErrNotInRoom):
		return protocol.CodeNotInRoom
	case errors.Is(err, orch.ErrChatFailed):
		return protocol.CodeChatFailed
	case errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong):
		return protocol.CodeBadPayload
	default:
		return protocol.CodeInternal
	}
}

func (ctl *SignalWSController) sendError(c core.SignalConnection, code, msg string) {
	ctl.sendJSON(c, protocol.Error{Type: protocol.TypeError, Code: code, Error: msg})
}

// reply reports err to the client. Host-only actions attempted by listeners
// are dropped without an answer.
func (ctl *SignalWSController) reply(sid core.SessionID, c core.SignalConnection, op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrNotHost) {
		return
	}
	code := errorCode(err)
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("op", op).Str("code", code).Msg("request failed")
	ctl.sendError(c, code, err.Error())
}

// decode unmarshals a payload, answering bad_payload on failure.
func (ctl *SignalWSController) decode(sid core.SessionID, c core.SignalConnection, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad payload")
		ctl.sendError(c, protocol.CodeBadPayload, "malformed payload")
		return false
	}
	return true
}
