package contract

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Binary State Codec ----------

// codecVersion increments when storage encoding changes.
// Used to detect incompatible stored state.
const codecVersion uint8 = 1

// meta flag bits
const (
	flagSettled     byte = 1 << 0
	flagGuess1      byte = 1 << 1
	flagGuess2      byte = 1 << 2
	flagCommitment1 byte = 1 << 3
	flagCommitment2 byte = 1 << 4
	flagWinner      byte = 1 << 5
)

var (
	errDecodeOverflow = errors.New("decode overflow")
	errTrailingBytes  = errors.New("trailing bytes")
)

// saveGame encodes g and buffers it under its session key.
func saveGame(ctx context.Context, env *sdk.Env, g *Game) error {
	b, err := encodeGame(g)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "encode session", err)
	}
	if err := env.Storage.Set(ctx, sdk.SessionKey(g.SessionID), b); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store session", err)
	}
	return nil
}

// loadGame reads and decodes a session. Missing or expired sessions
// are reported as SESSION_NOT_FOUND.
func loadGame(ctx context.Context, env *sdk.Env, id uint32) (*Game, error) {
	val, ok, err := env.Storage.Get(ctx, sdk.SessionKey(id))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeSessionNotFound,
			fmt.Sprintf("session %d not found", id),
			map[string]string{"session_id": u32String(id)},
		)
	}
	g, err := decodeGame(val)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("decode session %d", id), err)
	}
	return g, nil
}

// encodeGame serializes all session fields into a compact byte slice.
//
// Layout:
//
//	version | SessionID | Meta | HiddenWordID | CreatedLedger | Player1 | Player2 |
//	Player1Points | Player2Points | Guess1? | Guess2? | Commitment1? | Commitment2? | WinnerSeat?
//
// Meta holds one presence bit per optional field plus the settled bit.
// The winner is stored as its seat (1 or 2), never as a free address.
func encodeGame(g *Game) ([]byte, error) {
	out := make([]byte, 0, 32+len(g.Player1)+len(g.Player2)+2*32+8*GuessLength)

	w8 := func(x byte) { out = append(out, x) }
	w16 := func(x uint16) { out = binary.BigEndian.AppendUint16(out, x) }
	w32 := func(x uint32) { out = binary.BigEndian.AppendUint32(out, x) }
	w64 := func(x uint64) { out = binary.BigEndian.AppendUint64(out, x) }
	writeStr := func(s string) error {
		if len(s) > 0xFFFF {
			return fmt.Errorf("string of %d bytes too long", len(s))
		}
		w16(uint16(len(s)))
		out = append(out, s...)
		return nil
	}
	writeLetters := func(l []uint32) error {
		if len(l) > 0xFFFF {
			return fmt.Errorf("guess of %d letters too long", len(l))
		}
		w16(uint16(len(l)))
		for _, c := range l {
			w32(c)
		}
		return nil
	}

	var meta byte
	if g.Settled {
		meta |= flagSettled
	}
	if g.Player1Guess != nil {
		meta |= flagGuess1
	}
	if g.Player2Guess != nil {
		meta |= flagGuess2
	}
	if g.Player1Commitment != nil {
		meta |= flagCommitment1
	}
	if g.Player2Commitment != nil {
		meta |= flagCommitment2
	}
	var winnerSeat uint8
	if g.Winner != nil {
		winnerSeat = g.seat(*g.Winner)
		if winnerSeat == 0 {
			return nil, fmt.Errorf("winner %s is not a participant", *g.Winner)
		}
		meta |= flagWinner
	}

	w8(codecVersion)
	w32(g.SessionID)
	w8(meta)
	w32(g.HiddenWordID)
	w32(g.CreatedLedger)
	if err := writeStr(g.Player1.String()); err != nil {
		return nil, err
	}
	if err := writeStr(g.Player2.String()); err != nil {
		return nil, err
	}
	w64(uint64(g.Player1Points))
	w64(uint64(g.Player2Points))

	if g.Player1Guess != nil {
		if err := writeLetters(g.Player1Guess); err != nil {
			return nil, err
		}
	}
	if g.Player2Guess != nil {
		if err := writeLetters(g.Player2Guess); err != nil {
			return nil, err
		}
	}
	if g.Player1Commitment != nil {
		out = append(out, g.Player1Commitment[:]...)
	}
	if g.Player2Commitment != nil {
		out = append(out, g.Player2Commitment[:]...)
	}
	if winnerSeat != 0 {
		w8(winnerSeat)
	}
	return out, nil
}

// decodeGame reconstructs a *Game, ensuring no trailing bytes remain.
func decodeGame(b []byte) (*Game, error) {
	r := &rd{b: b}
	if v := r.u8(); r.err == nil && v != codecVersion {
		return nil, fmt.Errorf("unsupported codec version %d", v)
	}
	g := &Game{}
	g.SessionID = r.u32()
	meta := r.u8()
	g.HiddenWordID = r.u32()
	g.CreatedLedger = r.u32()
	g.Player1 = sdk.Address(r.str())
	g.Player2 = sdk.Address(r.str())
	g.Player1Points = r.i64()
	g.Player2Points = r.i64()
	g.Settled = meta&flagSettled != 0

	if meta&flagGuess1 != 0 {
		g.Player1Guess = r.letters()
	}
	if meta&flagGuess2 != 0 {
		g.Player2Guess = r.letters()
	}
	if meta&flagCommitment1 != 0 {
		g.Player1Commitment = r.commitment()
	}
	if meta&flagCommitment2 != 0 {
		g.Player2Commitment = r.commitment()
	}
	if meta&flagWinner != 0 {
		switch r.u8() {
		case 1:
			w := g.Player1
			g.Winner = &w
		case 2:
			w := g.Player2
			g.Winner = &w
		default:
			if r.err == nil {
				r.err = errors.New("invalid winner seat")
			}
		}
	}
	r.mustEnd()
	if r.err != nil {
		return nil, r.err
	}
	return g, nil
}

// rd is a binary reader over a byte slice with a sticky error.
type rd struct {
	b   []byte // raw buffer
	i   int    // current read index
	err error
}

// need reports whether n bytes are available from the current position.
func (r *rd) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.i+n > len(r.b) {
		r.err = errDecodeOverflow
		return false
	}
	return true
}

func (r *rd) u8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.i]
	r.i++
	return v
}

func (r *rd) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.i : r.i+2])
	r.i += 2
	return v
}

func (r *rd) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.i : r.i+4])
	r.i += 4
	return v
}

func (r *rd) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.b[r.i : r.i+8])
	r.i += 8
	return v
}

// i64 reads a signed int64 (stored as uint64).
func (r *rd) i64() int64 { return int64(r.u64()) }

func (r *rd) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.i : r.i+n]
	r.i += n
	return v
}

// str reads a length-prefixed string (2-byte length).
func (r *rd) str() string {
	l := int(r.u16())
	return string(r.bytes(l))
}

func (r *rd) letters() []uint32 {
	n := int(r.u16())
	out := make([]uint32, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.u32())
	}
	return out
}

func (r *rd) commitment() *Commitment {
	raw := r.bytes(len(Commitment{}))
	if raw == nil {
		return nil
	}
	var c Commitment
	copy(c[:], raw)
	return &c
}

// mustEnd verifies that the reader consumed all bytes exactly.
func (r *rd) mustEnd() {
	if r.err == nil && r.i != len(r.b) {
		r.err = errTrailingBytes
	}
}
