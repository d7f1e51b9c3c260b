package invite

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// CodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var errCodeLength = errors.New("invite code length must be positive")

type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodes struct {
	length int
}

// NewCodeGenerator returns a generator of uniformly random codes drawn from CodeAlphabet.
func NewCodeGenerator(length int) CodeGenerator {
	return &randomCodes{length: length}
}

func (g *randomCodes) Generate() (string, error) {
	if g.length <= 0 {
		return "", errCodeLength
	}

	limit := big.NewInt(int64(len(CodeAlphabet)))
	code := make([]byte, g.length)
	for i := range code {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[position.Int64()]
	}
	return string(code), nil
}
