// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides very easy to use and extensible configuration management capabilities.
//
// Config values are read from one or more Sources, each applying its values
// to a shared Store, and are then decoded into a user defined struct using
// the "config" struct tag.
package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure. Keys are dot
// separated paths, e.g. "stress.workers".
type Store interface {
	Set(key string, v any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// SourceFunc is a functional implementation of the Source interface.
type SourceFunc func(Store) error

// Apply implements the Source interface.
func (f SourceFunc) Apply(store Store) error {
	return f(store)
}

// Manager holds the merged values of every Source.
type Manager struct {
	store tree
}

// Read applies each source in order. Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(tree)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Unmarshal decodes the merged values into v, which must be a pointer.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: composeDecodeHooks(
			textUnmarshalerHookFunc(),
			timeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m.store))
}

// EmptyKeyError occurs when a Source sets a value without a key.
type EmptyKeyError struct {
	Value any
}

// Error implements the error interface.
func (e EmptyKeyError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key: %v", e.Value)
}

// UnexpectedKeyValueTypeError represents the situation when
// a source tries nesting a key under a key which was previously
// set to a non-map value.
type UnexpectedKeyValueTypeError struct {
	Key          string
	ExpectedType string
}

// Error implements the error interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a %s: %s", e.ExpectedType, e.Key)
}

type tree map[string]any

func (t tree) Set(key string, v any) error {
	if key == "" {
		return EmptyKeyError{Value: v}
	}

	path := strings.Split(key, ".")
	m := map[string]any(t)
	for i, name := range path[:len(path)-1] {
		old, ok := m[name]
		if !ok {
			sub := make(map[string]any)
			m[name] = sub
			m = sub
			continue
		}
		sub, ok := old.(map[string]any)
		if !ok {
			return UnexpectedKeyValueTypeError{
				Key:          strings.Join(path[:i+1], "."),
				ExpectedType: "map[string]any",
			}
		}
		m = sub
	}
	m[path[len(path)-1]] = v
	return nil
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to unmarshal a config
// value to a struct field whose type does not match the config
// value type, up to, coercion.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFuncType) mapstructure.DecodeHookFuncType {
	return func(f, t reflect.Type, data any) (any, error) {
		for _, h := range hs {
			v, err := h(f, t, data)
			if err == nil {
				return v, nil
			}
			if err == errInvalidDecodeCondition {
				continue
			}
			return nil, TypeCoercionError{
				From:  f,
				To:    t,
				Cause: err,
			}
		}
		return data, nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t)
		u, ok := result.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return result.Elem().Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int:
			return time.Duration(int64(data.(int))), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
