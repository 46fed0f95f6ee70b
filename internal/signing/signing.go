// Package signing manages the debug keystore and builds the apksigner
// commands that sign and verify a package.
package signing

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/filelock"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/shell"
)

// Identity is the key used to sign debug builds.
type Identity struct {
	Alias     string
	StorePass string
	KeyPass   string
	KeyAlg    string
	Validity  int
	DName     string
}

// IdentityFromConfig copies the signing section of the configuration.
func IdentityFromConfig(c config.SigningConfig) Identity {
	return Identity{
		Alias:     c.Alias,
		StorePass: c.StorePass,
		KeyPass:   c.KeyPass,
		KeyAlg:    c.KeyAlg,
		Validity:  c.Validity,
		DName:     c.DName,
	}
}

// DebugIdentity is the well-known Android debug signing identity.
func DebugIdentity() Identity {
	return Identity{
		Alias:     config.DefaultKeyAlias,
		StorePass: config.DefaultStorePass,
		KeyPass:   config.DefaultKeyPass,
		KeyAlg:    config.DefaultKeyAlg,
		Validity:  config.DefaultValidity,
		DName:     config.DefaultDName,
	}
}

// Signer builds keytool and apksigner invocations for one identity.
type Signer struct {
	Keytool   string
	APKSigner string
	Identity  Identity
}

// GenerateCmd creates a keystore holding a fresh self-signed key.
func (s Signer) GenerateCmd(keystore string) shell.Cmd {
	id := s.Identity
	return shell.Command(s.Keytool,
		"-genkeypair",
		"-keystore", keystore,
		"-storepass", id.StorePass,
		"-alias", id.Alias,
		"-keypass", id.KeyPass,
		"-keyalg", id.KeyAlg,
		"-validity", strconv.Itoa(id.Validity),
		"-dname", id.DName,
	)
}

// SignCmd signs apk in place.
func (s Signer) SignCmd(keystore, apk string) shell.Cmd {
	id := s.Identity
	return shell.Command(s.APKSigner,
		"sign", "-v",
		"--ks", keystore,
		"--ks-pass", "pass:"+id.StorePass,
		"--key-pass", "pass:"+id.KeyPass,
		"--ks-key-alias", id.Alias,
		apk,
	)
}

// VerifyCmd checks the signature of apk.
func (s Signer) VerifyCmd(apk string) shell.Cmd {
	return shell.Command(s.APKSigner, "verify", "-v", apk)
}

// EnsureKeystore runs generate when keystore does not exist. An existing
// keystore is never touched. The existence check is repeated while holding
// <keystore>.lock so that concurrent builds sharing an output root generate
// it once.
func EnsureKeystore(ctx context.Context, keystore string, generate func(context.Context) error) (bool, error) {
	if exists(keystore) {
		return false, nil
	}

	lock, err := filelock.Acquire(ctx, keystore+".lock")
	if err != nil {
		if ctx.Err() != nil {
			return false, apkerrors.Canceled(ctx.Err())
		}
		return false, apkerrors.Wrap(err, apkerrors.CategorySigning, apkerrors.SeverityFatal, "lock keystore").
			WithContext("path", keystore)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			slog.WarnContext(ctx, "Failed to release keystore lock", logfields.Path(lock.Path()), logfields.Error(rerr))
		}
	}()

	if exists(keystore) {
		return false, nil
	}
	slog.InfoContext(ctx, "Generating debug keystore", logfields.Path(keystore))
	if err := generate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
