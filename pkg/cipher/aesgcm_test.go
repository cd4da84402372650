package cipher

import (
	"bytes"
	"context"
	"testing"
)

func TestAESGCM_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, size := range []int{16, 24, 32} {
		key := bytes.Repeat([]byte{0x42}, size)
		c, err := NewAESGCM(key)
		if err != nil {
			t.Fatalf("NewAESGCM(%d byte key) error = %v", size, err)
		}

		plaintext := []byte("record body")
		sealed, err := c.Encrypt(ctx, plaintext)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if bytes.Equal(sealed, plaintext) {
			t.Error("ciphertext equals plaintext")
		}

		opened, err := c.Decrypt(ctx, sealed)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Errorf("Decrypt() = %q, want %q", opened, plaintext)
		}
	}
}

func TestAESGCM_FreshNoncePerCall(t *testing.T) {
	ctx := context.Background()
	c, err := NewAESGCM(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := c.Encrypt(ctx, []byte("same input"))
	b, _ := c.Encrypt(ctx, []byte("same input"))
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same input produced identical output")
	}
}

func TestAESGCM_InvalidKey(t *testing.T) {
	if _, err := NewAESGCM([]byte("short")); err == nil {
		t.Error("NewAESGCM should reject a 5 byte key")
	}
}

func TestAESGCM_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	a, _ := NewAESGCM(bytes.Repeat([]byte{0x01}, 32))
	b, _ := NewAESGCM(bytes.Repeat([]byte{0x02}, 32))

	sealed, err := a.Encrypt(ctx, []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decrypt(ctx, sealed); err == nil {
		t.Error("Decrypt with a different key should fail")
	}
}

func TestAESGCM_ShortCiphertext(t *testing.T) {
	c, _ := NewAESGCM(bytes.Repeat([]byte{0x42}, 32))
	if _, err := c.Decrypt(context.Background(), []byte{0x01, 0x02}); err == nil {
		t.Error("Decrypt should reject input shorter than the nonce")
	}
}

func TestZstd_RoundTrip(t *testing.T) {
	ctx := context.Background()
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("NewZstd() error = %v", err)
	}

	plaintext := bytes.Repeat([]byte("compressible "), 100)
	compressed, err := z.Encrypt(ctx, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if len(compressed) >= len(plaintext) {
		t.Errorf("compressed size %d >= plaintext size %d", len(compressed), len(plaintext))
	}

	restored, err := z.Decrypt(ctx, compressed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(restored, plaintext) {
		t.Error("round trip did not restore the input")
	}
}

func TestZstd_RejectsGarbage(t *testing.T) {
	z, err := NewZstd()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.Decrypt(context.Background(), []byte("not zstd data")); err == nil {
		t.Error("Decrypt should reject non-zstd input")
	}
}
