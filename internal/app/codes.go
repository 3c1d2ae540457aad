package app

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/Ayush94-1708/music-glass/internal/domain"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeClaimer reserves room codes. Claim must be atomic: of two concurrent
// claims for one code at most one succeeds.
type CodeClaimer interface {
	Claim(ctx context.Context, code domain.RoomCode) (bool, error)
	Release(ctx context.Context, code domain.RoomCode) error
}

// CodeGenerator returns a random candidate code.
type CodeGenerator func() (domain.RoomCode, error)

// RandomCodes draws codes of n characters from [A-Z0-9].
func RandomCodes(n int) CodeGenerator {
	size := big.NewInt(int64(len(codeAlphabet)))
	return func() (domain.RoomCode, error) {
		buf := make([]byte, n)
		for i := range buf {
			idx, err := rand.Int(rand.Reader, size)
			if err != nil {
				return "", err
			}
			buf[i] = codeAlphabet[idx.Int64()]
		}
		return domain.RoomCode(buf), nil
	}
}
