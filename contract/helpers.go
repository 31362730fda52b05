package contract

import (
	"encoding/hex"
	"strconv"
	"strings"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Payload Parsing ----------

// args walks a pipe-delimited payload field by field. The first parse
// failure sticks; later reads return zero values.
type args struct {
	in  string
	err error
}

func newArgs(payload string) *args { return &args{in: payload} }

func (a *args) fail(field, msg string) {
	if a.err == nil {
		a.err = apperrors.WithMetadata(apperrors.CodeInvalidArgument, field+": "+msg,
			map[string]string{"field": field})
	}
}

func (a *args) next(field string) string {
	if a.err != nil {
		return ""
	}
	return nextField(&a.in)
}

func (a *args) u32(field string) uint32 {
	s := a.next(field)
	if a.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		a.fail(field, "expected unsigned 32-bit integer, got "+strconv.Quote(s))
		return 0
	}
	return uint32(v)
}

func (a *args) i64(field string) int64 {
	s := a.next(field)
	if a.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		a.fail(field, "expected signed 64-bit integer, got "+strconv.Quote(s))
		return 0
	}
	return v
}

func (a *args) addr(field string) sdk.Address {
	s := a.next(field)
	if a.err != nil {
		return ""
	}
	addr := sdk.Address(s)
	if addr.IsZero() {
		a.fail(field, "address is mandatory")
	}
	return addr
}

// letters reads a comma separated list of letter codes. An empty field is
// an empty guess; range checks happen in the entry point.
func (a *args) letters(field string) []uint32 {
	s := a.next(field)
	if a.err != nil {
		return nil
	}
	if s == "" {
		return []uint32{}
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			a.fail(field, "expected letter code, got "+strconv.Quote(p))
			return nil
		}
		out = append(out, uint32(v))
	}
	return out
}

func (a *args) hex(field string) []byte {
	s := a.next(field)
	if a.err != nil {
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		a.fail(field, "expected hex bytes")
		return nil
	}
	return b
}

func (a *args) hex32(field string) [32]byte {
	var out [32]byte
	b := a.hex(field)
	if a.err != nil {
		return out
	}
	if len(b) != len(out) {
		a.fail(field, "expected 32 bytes, got "+strconv.Itoa(len(b)))
		return out
	}
	copy(out[:], b)
	return out
}

// done reports the first parse error, or an error when fields are left over.
func (a *args) done() error {
	if a.err != nil {
		return a.err
	}
	if a.in != "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "too many arguments")
	}
	return nil
}

func nextField(s *string) string {
	i := strings.IndexByte(*s, '|')
	if i < 0 {
		f := *s
		*s = ""
		return f
	}
	f := (*s)[:i]
	*s = (*s)[i+1:]
	return f
}

// ---------- Formatting Helpers ----------

func u32String(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func i64String(v int64) string { return strconv.FormatInt(v, 10) }

// lettersString renders letter codes the way they are authorized: "1,2,3".
func lettersString(l []uint32) string {
	var b strings.Builder
	for i, c := range l {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return b.String()
}
