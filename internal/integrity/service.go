// Package integrity produces and verifies the tamper-evident binding between
// a visit's immutable fields and the device signing key.
package integrity

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"waymark/internal/integrity/keystore"
	"waymark/internal/visits/models"
	dErrors "waymark/pkg/domain-errors"
	"waymark/pkg/platform/sentinel"
)

// Algo identifies the only signature scheme this service produces. Key
// rotation is out of scope; the key is created lazily once and reused for the
// life of the installation.
const Algo = "ecdsa-p256-sha256"

// Service signs canonical payloads and verifies stored visits. Safe for
// concurrent use.
type Service struct {
	keys   keystore.Provider
	logger *slog.Logger

	// Lazy load-or-generate of the signing key: singleflight collapses
	// concurrent first calls so two near-simultaneous signers cannot both
	// generate a key.
	group  singleflight.Group
	cached atomic.Pointer[ecdsa.PrivateKey]
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for key lifecycle reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an integrity service backed by the given key provider.
func New(keys keystore.Provider, opts ...Option) (*Service, error) {
	if keys == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "key provider is required")
	}
	s := &Service{keys: keys}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign computes the canonical digest of payload and signs it with the device
// key, creating and persisting the key on first use. createdAt is recorded as
// the signing instant. Fails with CodeSigning when the key cannot be obtained
// or the payload cannot serialize; nothing is persisted by this call beyond
// the key itself.
func (s *Service) Sign(ctx context.Context, payload Payload, createdAt time.Time) (models.Integrity, error) {
	digest, err := payload.Digest()
	if err != nil {
		return models.Integrity{}, err
	}

	key, err := s.signingKey(ctx)
	if err != nil {
		return models.Integrity{}, dErrors.Wrap(err, dErrors.CodeSigning, "obtain signing key")
	}

	signature, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return models.Integrity{}, dErrors.Wrap(err, dErrors.CodeSigning, "sign payload digest")
	}

	publicKey := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)

	return models.Integrity{
		Algo:               Algo,
		SignatureDERBase64: base64.StdEncoding.EncodeToString(signature),
		PublicKeyRawBase64: base64.StdEncoding.EncodeToString(publicKey),
		PayloadHashHex:     hex.EncodeToString(digest[:]),
		CreatedAtUTC:       createdAt.UTC(),
	}, nil
}

// Verify recomputes the canonical digest from the visit's stored immutable
// fields and checks the stored signature against the stored public key. The
// stored PayloadHashHex is never trusted. Any malformed input (bad base64,
// bad key bytes, bad signature) yields false; verification is advisory and
// never fails loudly.
func (s *Service) Verify(visit models.Visit) bool {
	digest, err := PayloadFromVisit(visit).Digest()
	if err != nil {
		return false
	}

	publicKeyRaw, err := base64.StdEncoding.DecodeString(visit.Integrity.PublicKeyRawBase64)
	if err != nil {
		return false
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), publicKeyRaw)
	if x == nil {
		return false
	}
	publicKey := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	signature, err := base64.StdEncoding.DecodeString(visit.Integrity.SignatureDERBase64)
	if err != nil {
		return false
	}

	return ecdsa.VerifyASN1(publicKey, digest[:], signature)
}

func (s *Service) signingKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	if key := s.cached.Load(); key != nil {
		return key, nil
	}

	loaded, err, _ := s.group.Do("signing-key", func() (any, error) {
		if key := s.cached.Load(); key != nil {
			return key, nil
		}

		key, err := s.keys.Load(ctx)
		switch {
		case err == nil:
			return key, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, err
		}

		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		// Persist before first use so a crash cannot leave signed records
		// whose key was never stored.
		if err := s.keys.Store(ctx, key); err != nil {
			return nil, err
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "generated device signing key", "algo", Algo)
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	key := loaded.(*ecdsa.PrivateKey)
	s.cached.Store(key)
	return key, nil
}
