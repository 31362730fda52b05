// Package duelctl implements the player and operator CLI: key generation,
// grant signing, guess commitments and contract calls.
package duelctl

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"alpha-duel/internal/api/grpc/duel"
	"alpha-duel/internal/auth"
	"alpha-duel/internal/commitment"
	"alpha-duel/internal/config"
	"alpha-duel/sdk"
)

// Env holds CLI defaults read from the environment.
type Env struct {
	PrivateKey string        `env:"ALPHA_DUEL_PRIVATE_KEY"`
	Contract   string        `env:"ALPHA_DUEL_CONTRACT_ADDR" envDefault:"alpha-duel"`
	Server     string        `env:"ALPHA_DUEL_SERVER_ADDR" envDefault:"127.0.0.1:8095"`
	GrantTTL   time.Duration `env:"ALPHA_DUEL_GRANT_TTL" envDefault:"5m"`
}

const usage = `usage: duelctl <command> [flags] [args]

commands:
  keygen                      generate an account key pair
  grant <fn> [arg...]         sign a single-use grant for fn with args
  commit <l1,l2,l3>           compute a guess commitment with a fresh salt
  call <fn> <payload>         invoke a contract function
  functions                   list callable functions`

// Run executes one CLI command.
func Run(ctx context.Context, args []string, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	var env Env
	if err := config.ParseEnv(&env); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "keygen":
		return keygen(out)
	case "grant":
		return grant(rest, env, out, time.Now)
	case "commit":
		return commit(rest, out)
	case "call":
		return call(ctx, rest, env, out)
	case "functions":
		return functions(ctx, rest, env, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func keygen(out io.Writer) error {
	addr, key, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export ALPHA_DUEL_ADDRESS=%s\n", addr); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "export ALPHA_DUEL_PRIVATE_KEY=%s\n", auth.EncodePrivateKey(key))
	return err
}

func grant(args []string, env Env, out io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	keyFlag := fs.String("key", env.PrivateKey, "base64 private key")
	contract := fs.String("contract", env.Contract, "contract address")
	ttl := fs.Duration("ttl", env.GrantTTL, "grant lifetime")
	id := fs.String("id", "", "grant id (random when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("grant: function is required")
	}
	key, err := auth.DecodePrivateKey(*keyFlag)
	if err != nil {
		return fmt.Errorf("grant: %w", err)
	}
	if *id == "" {
		*id = uuid.NewString()
	}
	issued := now().UTC()
	token, err := auth.Sign(key, auth.Grant{
		ID:        *id,
		Contract:  sdk.Address(*contract),
		Function:  fs.Arg(0),
		Args:      fs.Args()[1:],
		IssuedAt:  issued,
		ExpiresAt: issued.Add(*ttl),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func commit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	saltHex := fs.String("salt", "", "hex salt (random when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("commit: letters are required, e.g. 2,7,4")
	}
	guess, err := parseLetters(fs.Arg(0))
	if err != nil {
		return err
	}
	var salt []byte
	if *saltHex != "" {
		if salt, err = hex.DecodeString(*saltHex); err != nil {
			return fmt.Errorf("commit: decode salt: %w", err)
		}
	} else if salt, err = commitment.NewSalt(); err != nil {
		return err
	}
	c := commitment.Commit(guess, salt)
	_, err = fmt.Fprintf(out, "commitment=%s\nsalt=%s\n", hex.EncodeToString(c[:]), hex.EncodeToString(salt))
	return err
}

func parseLetters(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("letter %q: %w", p, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

type grantList []string

func (g *grantList) String() string { return strings.Join(*g, ",") }

func (g *grantList) Set(v string) error {
	*g = append(*g, v)
	return nil
}

func dial(server string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(server, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", server, err)
	}
	return conn, nil
}

func call(ctx context.Context, args []string, env Env, out io.Writer) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := fs.String("server", env.Server, "contract server address")
	var grants grantList
	fs.Var(&grants, "grant", "grant token (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("call: usage call [-grant token]... <fn> [payload]")
	}
	conn, err := dial(*server)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := duel.NewClient(conn).Call(ctx, &duel.CallRequest{
		Function: fs.Arg(0),
		Args:     fs.Arg(1),
		Grants:   grants,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func functions(ctx context.Context, args []string, env Env, out io.Writer) error {
	fs := flag.NewFlagSet("functions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := fs.String("server", env.Server, "contract server address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	conn, err := dial(*server)
	if err != nil {
		return err
	}
	defer conn.Close()

	names, err := duel.NewClient(conn).ListFunctions(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(out, n); err != nil {
			return err
		}
	}
	return nil
}
