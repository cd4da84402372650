package cipher

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/restash/restash/pkg/cache"
)

// Zstd compresses record bodies at rest. It implements the cipher
// contract: EncodeAll and DecodeAll are inverses.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ cache.Cipher = (*Zstd)(nil)

// NewZstd returns a zstd transform with default compression level. The
// encoder and decoder are safe for concurrent use via EncodeAll/DecodeAll.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (z *Zstd) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	return z.enc.EncodeAll(plaintext, nil), nil
}

func (z *Zstd) Decrypt(_ context.Context, compressed []byte) ([]byte, error) {
	plaintext, err := z.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress record body: %w", err)
	}
	return plaintext, nil
}
