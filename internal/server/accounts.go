package server

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omochice/toy-chat-clients/pkg/protocol"
)

// Accounts is the in-memory account registry keyed by account hash.
type Accounts struct {
	byHash map[string]protocol.Account
	mu     sync.RWMutex
}

// NewAccounts creates an empty registry.
func NewAccounts() *Accounts {
	return &Accounts{
		byHash: make(map[string]protocol.Account),
	}
}

// Register creates an account with a fresh hash. A blank nickname gets a
// generated one.
func (a *Accounts) Register(nickname string) protocol.Account {
	hash := uuid.NewString()

	nickname = strings.TrimSpace(protocol.Sanitize(nickname))
	if nickname == "" {
		nickname = "anonymous-" + hash[:8]
	}

	account := protocol.Account{Nickname: nickname, Hash: hash}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byHash[hash] = account
	return account
}

// Lookup finds the account for hash.
func (a *Accounts) Lookup(hash string) (protocol.Account, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	account, ok := a.byHash[hash]
	return account, ok
}

// Len returns the number of registered accounts.
func (a *Accounts) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byHash)
}
