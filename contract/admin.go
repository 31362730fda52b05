package contract

import (
	"context"
	"encoding/hex"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Admin ----------
//
// Admin and hub addresses are instance entries written once by Initialize
// and rotated afterwards by the current admin. Every mutation is authorized
// by the current admin for the new value.

// Initialize stores the admin and hub addresses of a fresh deployment.
func (c *Contract) Initialize(ctx context.Context, env *sdk.Env, admin, hubAddr sdk.Address) error {
	if admin.IsZero() || hubAddr.IsZero() {
		return apperrors.New(apperrors.CodeInvalidArgument, "admin and hub addresses are mandatory")
	}
	set, err := env.Storage.Has(ctx, sdk.AdminKey())
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "check admin", err)
	}
	if set {
		return apperrors.New(apperrors.CodeAlreadyInitialized, "contract already initialized")
	}
	if err := storeAddress(ctx, env, sdk.AdminKey(), admin); err != nil {
		return err
	}
	if err := storeAddress(ctx, env, sdk.HubKey(), hubAddr); err != nil {
		return err
	}
	emitAdminChanged(env, "", admin)
	emitHubChanged(env, "", hubAddr)
	return nil
}

// GetAdmin returns the current admin address.
func (c *Contract) GetAdmin(ctx context.Context, env *sdk.Env) (sdk.Address, error) {
	return loadAdmin(ctx, env)
}

// SetAdmin hands the admin role to next.
func (c *Contract) SetAdmin(ctx context.Context, env *sdk.Env, next sdk.Address) error {
	if next.IsZero() {
		return apperrors.New(apperrors.CodeInvalidArgument, "admin address is mandatory")
	}
	admin, err := requireAdmin(ctx, env, next.String())
	if err != nil {
		return err
	}
	if err := storeAddress(ctx, env, sdk.AdminKey(), next); err != nil {
		return err
	}
	emitAdminChanged(env, admin, next)
	return nil
}

// GetHub returns the escrow hub address.
func (c *Contract) GetHub(ctx context.Context, env *sdk.Env) (sdk.Address, error) {
	return loadHub(ctx, env)
}

// SetHub points the contract at another escrow hub. Sessions already started
// settle against whichever hub is configured when they settle.
func (c *Contract) SetHub(ctx context.Context, env *sdk.Env, next sdk.Address) error {
	if next.IsZero() {
		return apperrors.New(apperrors.CodeInvalidArgument, "hub address is mandatory")
	}
	if _, err := requireAdmin(ctx, env, next.String()); err != nil {
		return err
	}
	prev, err := loadHub(ctx, env)
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotInitialized) {
		return err
	}
	if err := storeAddress(ctx, env, sdk.HubKey(), next); err != nil {
		return err
	}
	emitHubChanged(env, prev, next)
	return nil
}

// Upgrade records the hash of the code the deployment should run next.
func (c *Contract) Upgrade(ctx context.Context, env *sdk.Env, codeHash [32]byte) error {
	h := hex.EncodeToString(codeHash[:])
	if _, err := requireAdmin(ctx, env, h); err != nil {
		return err
	}
	if err := env.Storage.Set(ctx, sdk.CodeHashKey(), codeHash[:]); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store code hash", err)
	}
	emitUpgraded(env, h)
	return nil
}

// CodeHash returns the hash recorded by the last Upgrade, or NOT_INITIALIZED.
func (c *Contract) CodeHash(ctx context.Context, env *sdk.Env) ([32]byte, error) {
	var out [32]byte
	v, ok, err := env.Storage.Get(ctx, sdk.CodeHashKey())
	if err != nil {
		return out, apperrors.Wrap(apperrors.CodeInternal, "load code hash", err)
	}
	if !ok || len(v) != len(out) {
		return out, apperrors.New(apperrors.CodeNotInitialized, "code hash not set")
	}
	copy(out[:], v)
	return out, nil
}

// requireAdmin loads the admin and checks it authorized args.
func requireAdmin(ctx context.Context, env *sdk.Env, args ...string) (sdk.Address, error) {
	admin, err := loadAdmin(ctx, env)
	if err != nil {
		return "", err
	}
	if err := requireAuth(ctx, env, admin, args...); err != nil {
		return "", err
	}
	return admin, nil
}
