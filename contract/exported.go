package contract

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// entry decodes a pipe-delimited payload, runs one operation and renders its result.
type entry func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error)

// entries is the public operation surface, keyed by function name.
//
// Payloads:
//
//	create_session            id|player1|player2|stake1|stake2
//	get_session               id
//	submit_guess              id|player|l1,l2,l3
//	submit_commitment         id|player|hex32
//	resolve_winner_plain      id
//	resolve_winner_with_proof id|hexProof|o1,o2,...
//	settle_session            id|caller
//	extend_session            id|caller
//	get_admin / get_hub / get_code_hash
//	set_admin / set_hub       address
//	upgrade                   hex32
var entries = map[string]entry{
	"create_session": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		p1 := in.addr("player1")
		p2 := in.addr("player2")
		s1 := in.i64("player1_points")
		s2 := in.i64("player2_points")
		if err := in.done(); err != nil {
			return "", err
		}
		g, err := c.CreateSession(ctx, env, id, p1, p2, s1, s2)
		if err != nil {
			return "", err
		}
		return toJSON(g.View())
	},
	"get_session": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		if err := in.done(); err != nil {
			return "", err
		}
		g, err := c.GetSession(ctx, env, id)
		if err != nil {
			return "", err
		}
		return toJSON(g.View())
	},
	"submit_guess": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		player := in.addr("player")
		letters := in.letters("guess")
		if err := in.done(); err != nil {
			return "", err
		}
		return "", c.SubmitGuess(ctx, env, id, player, letters)
	},
	"submit_commitment": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		player := in.addr("player")
		cm := in.hex32("commitment")
		if err := in.done(); err != nil {
			return "", err
		}
		return "", c.SubmitCommitment(ctx, env, id, player, Commitment(cm))
	},
	"resolve_winner_plain": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		if err := in.done(); err != nil {
			return "", err
		}
		w, err := c.ResolveWinnerPlain(ctx, env, id)
		return w.String(), err
	},
	"resolve_winner_with_proof": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		proof := in.hex("proof")
		outputs := in.letters("public_outputs")
		if err := in.done(); err != nil {
			return "", err
		}
		w, err := c.ResolveWinnerWithProof(ctx, env, id, proof, outputs)
		return w.String(), err
	},
	"settle_session": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		caller := in.addr("caller")
		if err := in.done(); err != nil {
			return "", err
		}
		won, err := c.SettleSession(ctx, env, id, caller)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(won), nil
	},
	"extend_session": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		id := in.u32("session_id")
		caller := in.addr("caller")
		if err := in.done(); err != nil {
			return "", err
		}
		liveUntil, err := c.ExtendSession(ctx, env, id, caller)
		if err != nil {
			return "", err
		}
		return u32String(liveUntil), nil
	},
	"get_admin": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		if err := in.done(); err != nil {
			return "", err
		}
		a, err := c.GetAdmin(ctx, env)
		return a.String(), err
	},
	"set_admin": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		next := in.addr("admin")
		if err := in.done(); err != nil {
			return "", err
		}
		return "", c.SetAdmin(ctx, env, next)
	},
	"get_hub": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		if err := in.done(); err != nil {
			return "", err
		}
		h, err := c.GetHub(ctx, env)
		return h.String(), err
	},
	"set_hub": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		next := in.addr("hub")
		if err := in.done(); err != nil {
			return "", err
		}
		return "", c.SetHub(ctx, env, next)
	},
	"upgrade": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		h := in.hex32("code_hash")
		if err := in.done(); err != nil {
			return "", err
		}
		return "", c.Upgrade(ctx, env, h)
	},
	"get_code_hash": func(c *Contract, ctx context.Context, env *sdk.Env, in *args) (string, error) {
		if err := in.done(); err != nil {
			return "", err
		}
		h, err := c.CodeHash(ctx, env)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(h[:]), nil
	},
}

// Functions returns the callable function names in sorted order.
func Functions() []string {
	out := make([]string, 0, len(entries))
	for name := range entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Call dispatches function with its pipe-delimited payload.
func (c *Contract) Call(ctx context.Context, env *sdk.Env, function, payload string) (string, error) {
	e, ok := entries[function]
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownFunction, "unknown function "+strconv.Quote(function),
			map[string]string{"function": function})
	}
	return e(c, ctx, env, newArgs(payload))
}

func toJSON[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "marshal result", err)
	}
	return string(b), nil
}
