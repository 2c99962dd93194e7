package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrBadCredentials is returned when a staff id or PIN does not match.
var ErrBadCredentials = errors.New("auth: invalid staff credentials")

// PinParams are the argon2id parameters used when hashing new PINs.
var PinParams = argon2id.DefaultParams

type pinEntry struct {
	role string
	hash string
}

// PinBook maps staff ids to roles and argon2id PIN hashes.
type PinBook struct {
	entries map[string]pinEntry
}

// ParsePinBook reads entries of the form "id:role:hash" separated by semicolons.
func ParsePinBook(raw string) (*PinBook, error) {
	book := &PinBook{entries: make(map[string]pinEntry)}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("auth: malformed pin entry %q", part)
		}
		id, role, hash := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2])
		if id == "" || hash == "" {
			return nil, fmt.Errorf("auth: malformed pin entry %q", part)
		}
		if role != RoleStaff && role != RoleManager {
			return nil, fmt.Errorf("auth: unknown role %q for %s", role, id)
		}
		if _, _, _, err := argon2id.DecodeHash(hash); err != nil {
			return nil, fmt.Errorf("auth: pin hash for %s: %w", id, err)
		}
		book.entries[id] = pinEntry{role: role, hash: hash}
	}
	return book, nil
}

// Len reports how many staff members can sign in.
func (b *PinBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Authenticate checks pin against the stored hash for id.
func (b *PinBook) Authenticate(id, pin string) (Staff, error) {
	if b == nil {
		return Staff{}, ErrBadCredentials
	}
	entry, ok := b.entries[strings.TrimSpace(id)]
	if !ok {
		return Staff{}, ErrBadCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(pin, entry.hash)
	if err != nil {
		return Staff{}, fmt.Errorf("auth: compare pin: %w", err)
	}
	if !match {
		return Staff{}, ErrBadCredentials
	}
	return Staff{ID: strings.TrimSpace(id), Role: entry.role}, nil
}

// HashPin derives an argon2id hash suitable for a PinBook entry.
func HashPin(pin string) (string, error) {
	if len(strings.TrimSpace(pin)) < 4 {
		return "", errors.New("auth: pin must have at least 4 characters")
	}
	return argon2id.CreateHash(pin, PinParams)
}
