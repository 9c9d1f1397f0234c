// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// defines individual functions.

type (
	GetFunc         func(key []byte) ([]byte, error)
	HasFunc         func(key []byte) (bool, error)
	IsNotFoundFunc  func(err error) bool
	PutFunc         func(key, val []byte) error
	DeleteFunc      func(key []byte) error
	NewBatchFunc    func() Batch
	NewIteratorFunc func(r Range) Iterator
	LenFunc         func() int
	WriteFunc       func() error
	NextFunc        func() bool
	ReleaseFunc     func()
	ErrorFunc       func() error
	KeyFunc         func() []byte
	ValueFunc       func() []byte
)

func (f GetFunc) Get(key []byte) ([]byte, error)       { return f(key) }
func (f HasFunc) Has(key []byte) (bool, error)         { return f(key) }
func (f IsNotFoundFunc) IsNotFound(err error) bool     { return f(err) }
func (f PutFunc) Put(key, val []byte) error            { return f(key, val) }
func (f DeleteFunc) Delete(key []byte) error           { return f(key) }
func (f NewBatchFunc) NewBatch() Batch                 { return f() }
func (f NewIteratorFunc) NewIterator(r Range) Iterator { return f(r) }
func (f LenFunc) Len() int                             { return f() }
func (f WriteFunc) Write() error                       { return f() }
func (f NextFunc) Next() bool                          { return f() }
func (f ReleaseFunc) Release()                         { f() }
func (f ErrorFunc) Error() error                       { return f() }
func (f KeyFunc) Key() []byte                          { return f() }
func (f ValueFunc) Value() []byte                      { return f() }
