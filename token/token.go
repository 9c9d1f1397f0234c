// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token provides book-entry asset ledgers. A Book tracks balances
// in a kv store and satisfies the engine's Token collaborator; transfers
// are atomic, a failed move changes no balance.
package token

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/lockpool/lockpool/kv"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/staking/reverts"
)

// ErrInsufficientBalance rejects moves larger than the source balance.
var ErrInsufficientBalance = reverts.New("insufficient balance")

// Book is a named balance book. self is the account the unary Transfer
// draws from.
type Book struct {
	self  lockpool.Address
	store kv.Store
	mu    sync.Mutex
}

// New opens the named book on the store.
func New(store kv.Store, name string, self lockpool.Address) *Book {
	return &Book{
		self:  self,
		store: kv.Bucket("t" + name).NewStore(store),
	}
}

func (b *Book) balance(addr lockpool.Address) (*big.Int, error) {
	raw, err := b.store.Get(addr.Bytes())
	if err != nil {
		if b.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "get balance")
	}
	return new(big.Int).SetBytes(raw), nil
}

func (b *Book) setBalance(addr lockpool.Address, balance *big.Int) error {
	return b.store.Put(addr.Bytes(), balance.Bytes())
}

func (b *Book) move(from, to lockpool.Address, amount *big.Int) error {
	src, err := b.balance(from)
	if err != nil {
		return err
	}
	if src.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	dst, err := b.balance(to)
	if err != nil {
		return err
	}
	if err := b.setBalance(from, src.Sub(src, amount)); err != nil {
		return err
	}
	return b.setBalance(to, dst.Add(dst, amount))
}

// Transfer moves amount from the book's own account to to.
func (b *Book) Transfer(to lockpool.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(b.self, to, amount)
}

// TransferFrom moves amount between arbitrary accounts.
func (b *Book) TransferFrom(from, to lockpool.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(from, to, amount)
}

// BalanceOf returns addr's balance.
func (b *Book) BalanceOf(addr lockpool.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(addr)
}

// Mint credits addr out of thin air.
func (b *Book) Mint(addr lockpool.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, err := b.balance(addr)
	if err != nil {
		return err
	}
	return b.setBalance(addr, balance.Add(balance, amount))
}
