package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	err := mgr.Add("mywallet", &wallet.Wallet{
		Name:    "mywallet",
		Address: "0x1234567890abcdef1234567890abcdef12345678",
		Type:    wallet.TypeWatchOnly,
	})
	require.NoError(t, err)

	w, err := mgr.Get("mywallet")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.NotEmpty(t, w.CreatedAt)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w := &wallet.Wallet{Name: "dup", Address: "0x123", Type: wallet.TypeWatchOnly}
	require.NoError(t, mgr.Add("dup", w))
	assert.ErrorIs(t, mgr.Add("dup", w), wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))

	require.NoError(t, mgr.AddWithKey("signer", "0x"+testPrivKeyHex))

	w, err := mgr.Get("signer")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, testSignerAddr, w.Address)

	stored, err := ks.Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, stored)
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestGenerateWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w, hexKey, err := mgr.Generate("fresh")
	require.NoError(t, err)
	assert.Len(t, hexKey, 64)
	assert.Equal(t, wallet.TypeSigning, w.Type)

	_, _, err = mgr.Generate("fresh")
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))
	require.NoError(t, mgr.AddWithKey("gone", testPrivKeyHex))
	w, _ := mgr.Get("gone")

	require.NoError(t, mgr.Remove("gone"))

	_, err := mgr.Get("gone")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = ks.Retrieve(w.KeyRef)
	assert.Error(t, err)
}

func TestRemoveNonExistentWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.ErrorIs(t, mgr.Remove("ghost"), wallet.ErrWalletNotFound)
}

func TestDefaultWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.Nil(t, mgr.Default())

	mgr.Add("a", &wallet.Wallet{Name: "a", Type: wallet.TypeWatchOnly}) //nolint:errcheck
	require.NotNil(t, mgr.Default(), "single wallet is the implicit default")

	mgr.Add("b", &wallet.Wallet{Name: "b", Type: wallet.TypeWatchOnly}) //nolint:errcheck
	assert.Nil(t, mgr.Default())

	require.NoError(t, mgr.SetDefault("b"))
	assert.Equal(t, "b", mgr.Default().Name)
	assert.ErrorIs(t, mgr.SetDefault("zzz"), wallet.ErrWalletNotFound)
}

func TestListSorted(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	for _, n := range []string{"carol", "alice", "bob"} {
		mgr.Add(n, &wallet.Wallet{Name: n, Type: wallet.TypeWatchOnly}) //nolint:errcheck
	}
	list := mgr.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "carol", list[2].Name)
}

func TestJSONStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")

	mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	require.NoError(t, mgr.Add("w1", &wallet.Wallet{Name: "w1", Address: "0x1", Type: wallet.TypeWatchOnly}))

	reloaded := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	w, err := reloaded.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, "0x1", w.Address)
}

func TestJSONStoreMissingFile(t *testing.T) {
	s := wallet.NewJSONStore(filepath.Join(t.TempDir(), "nope.json"))
	ws, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, ws)
}
