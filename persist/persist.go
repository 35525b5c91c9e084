// Package persist backs reactive cells with a key/value store. A persisted
// cell loads its initial value from the backend and writes every new value
// back. Storage failures never reach the caller; they are logged and the
// cell keeps working in memory.
package persist

import (
	"context"
	"errors"
	"log"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/store"
)

// Option configures a persisted cell
type Option func(*options)

type options struct {
	codec  Codec
	logger *log.Logger
}

// WithCodec sets the codec. The default is JSON.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger used for swallowed serialization errors. The
// default is the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a cell for key. The stored value becomes the initial value when
// it exists and decodes; otherwise def does. Every Set encodes the new value
// and writes it under key.
func New[T any](ctx context.Context, backend Backend, key string, def T, opts ...Option) *store.Cell[T] {
	o := &options{codec: JSON}
	for _, opt := range opts {
		opt(o)
	}
	logf := log.Printf
	if o.logger != nil {
		logf = o.logger.Printf
	}

	initial := def
	if v, err := load[T](ctx, backend, o.codec, key); err != nil {
		if !errors.Is(err, ErrNotFound) {
			logf("persist: %v", err)
		}
	} else {
		initial = v
	}

	cell := store.New(initial)
	cell.Subscribe(func() {
		if err := save(ctx, backend, o.codec, key, cell.Get()); err != nil {
			logf("persist: %v", err)
		}
	})
	return cell
}

// Load reads and decodes the value stored under key.
func Load[T any](ctx context.Context, backend Backend, codec Codec, key string) (T, error) {
	return load[T](ctx, backend, codec, key)
}

func load[T any](ctx context.Context, backend Backend, codec Codec, key string) (T, error) {
	var v T
	data, err := backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, err
	}
	if err != nil {
		return v, &typhoon.SerializationError{Key: key, Op: "load", Err: err}
	}
	if err := codec.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, &typhoon.SerializationError{Key: key, Op: "decode", Err: err}
	}
	return v, nil
}

func save[T any](ctx context.Context, backend Backend, codec Codec, key string, v T) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return &typhoon.SerializationError{Key: key, Op: "encode", Err: err}
	}
	if err := backend.Put(ctx, key, data); err != nil {
		return &typhoon.SerializationError{Key: key, Op: "store", Err: err}
	}
	return nil
}
