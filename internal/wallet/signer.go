package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions for a signing wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
	cache  *KeyCache

	mu  sync.Mutex
	key *ecdsa.PrivateKey
}

// NewSigner creates a signer for the given wallet. cache may be nil.
func NewSigner(w *Wallet, ks KeystoreBackend, cache *KeyCache) *Signer {
	return &Signer{wallet: w, ks: ks, cache: cache}
}

// Unlock loads the private key, trying the key cache before the keystore.
// Unlocking an unlocked signer is a no-op.
func (s *Signer) Unlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlock()
}

func (s *Signer) unlock() error {
	if s.key != nil {
		return nil
	}
	if s.wallet.Type != TypeSigning {
		return fmt.Errorf("%w: %q cannot sign", ErrWatchOnly, s.wallet.Name)
	}

	hexKey, cached := "", false
	if s.cache != nil {
		hexKey, cached = s.cache.Get(s.wallet.KeyRef)
	}
	if !cached {
		var err error
		hexKey, err = s.ks.Retrieve(s.wallet.KeyRef)
		if err != nil {
			return fmt.Errorf("retrieving key: %w", err)
		}
	}

	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return fmt.Errorf("parsing private key: %w", err)
	}
	if addr := crypto.PubkeyToAddress(key.PublicKey); s.wallet.Address != "" && addr != common.HexToAddress(s.wallet.Address) {
		return fmt.Errorf("%w: key does not match address %s", ErrInvalidKey, s.wallet.Address)
	}
	s.key = key
	if s.cache != nil && !cached {
		_ = s.cache.Put(s.wallet.KeyRef, hexKey) // best-effort
	}
	return nil
}

// SignTx signs tx for chainID, unlocking the key first if needed.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unlock(); err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return common.HexToAddress(s.wallet.Address)
}

// Name returns the wallet name.
func (s *Signer) Name() string { return s.wallet.Name }
