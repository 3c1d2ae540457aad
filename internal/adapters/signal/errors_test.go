package signal

import (
	"fmt"
	"testing"

	"github.com/Ayush94-1708/music-glass/internal/app/orch"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	cases := map[error]string{
		domain.ErrRoomNotFound:  protocol.CodeRoomNotFound,
		domain.ErrAlreadyInRoom: protocol.CodeAlreadyInRoom,
		domain.ErrNotInRoom:     protocol.CodeNotInRoom,
		fmt.Errorf("%w: %w", domain.ErrInvalidPayload, domain.ErrUsernameTooLong): protocol.CodeBadPayload,
		fmt.Errorf("%w: boom", orch.ErrChatFailed):                                protocol.CodeChatFailed,
		fmt.Errorf("something else"):                                              protocol.CodeInternal,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorCode(err), err.Error())
	}
}
