package pow

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"simple-ledger-go/hashing"
)

const (
	MAX_PROOF          = math.MaxInt64
	DEFAULT_DIFFICULTY = 4
	MAX_DIFFICULTY     = 64

	// candidates tried between context checks
	checkEvery = 4096
)

var ErrProofSpaceExhausted = errors.New("no proof satisfies the difficulty")

// ProofOfWork searches for a proof p such that
// digest(previousProof ‖ p), as hex, starts with difficulty zeros.
type ProofOfWork struct {
	previousProof int64
	difficulty    int
	algorithm     hashing.Algorithm
	target        string
}

func NewProofOfWork(
	previousProof int64, difficulty int, algorithm hashing.Algorithm,
) *ProofOfWork {
	if difficulty < 0 {
		difficulty = 0
	}
	if difficulty > MAX_DIFFICULTY {
		difficulty = MAX_DIFFICULTY
	}
	pow := ProofOfWork{
		previousProof: previousProof,
		difficulty:    difficulty,
		algorithm:     algorithm,
		target:        strings.Repeat("0", difficulty),
	}
	return &pow
}

func (pow *ProofOfWork) guess(proof int64) string {
	data := make([]byte, 0, 40)
	data = strconv.AppendInt(data, pow.previousProof, 10)
	data = strconv.AppendInt(data, proof, 10)
	return pow.algorithm.Hex(data)
}

// Run returns the smallest proof satisfying the predicate. The result depends
// only on the previous proof, the difficulty and the digest.
func (pow *ProofOfWork) Run(ctx context.Context) (int64, error) {
	slog.Debug("searching proof",
		"previous_proof", pow.previousProof, "difficulty", pow.difficulty)

	var proof int64
	for {
		if proof%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if pow.Validate(proof) {
			slog.Debug("found proof", "proof", proof)
			return proof, nil
		}
		if proof == MAX_PROOF {
			return 0, ErrProofSpaceExhausted
		}
		proof++
	}
}

// Validate costs one digest regardless of how the proof was found.
func (pow *ProofOfWork) Validate(proof int64) bool {
	if proof < 0 {
		return false
	}
	return strings.HasPrefix(pow.guess(proof), pow.target)
}

func (pow *ProofOfWork) Difficulty() int {
	return pow.difficulty
}
