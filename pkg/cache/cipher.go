package cache

import (
	"context"
	"fmt"
)

// Cipher transforms record bodies around store access: Encrypt on write,
// Decrypt on read. The two must be inverses (Decrypt(Encrypt(b)) == b for
// all b) or the cache becomes unreadable; the engine does not verify this.
// Implementations may suspend on the context, e.g. when the transform is
// remote.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, sealed []byte) ([]byte, error)
}

// CipherError wraps an encryption or decryption failure. Cipher failures
// always propagate; a stale record is never substituted for them.
type CipherError struct {
	Op  string
	Err error
}

func (e *CipherError) Error() string {
	return fmt.Sprintf("cache cipher %s: %v", e.Op, e.Err)
}

func (e *CipherError) Unwrap() error { return e.Err }
