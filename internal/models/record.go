package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned when input does not fit the collection's record type
var ErrInvalidRecord = errors.New("invalid record")

// Base carries the store-assigned fields shared by every list record
type Base struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt *time.Time `gorm:"index;autoCreateTime:false" json:"createdAt,omitempty"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

// Meta returns the embedded store fields
func (b *Base) Meta() *Base {
	return b
}

// Created returns the creation time, zero when the record has none
func (b *Base) Created() time.Time {
	if b.CreatedAt == nil {
		return time.Time{}
	}
	return *b.CreatedAt
}

// Record is implemented by every list collection type
type Record interface {
	Collection() Collection
	Meta() *Base
	Validate() error
}

// Defaulter fills in default field values before a record is first stored
type Defaulter interface {
	ApplyDefaults()
}

// Preparer transforms input-only fields before a record is written
type Preparer interface {
	Prepare(hash func(string) (string, error)) error
}

// Secretive records keep a value that is never serialized to JSON
type Secretive interface {
	Secret() string
	SetSecret(string)
}

var storeAssigned = map[string]struct{}{
	"id":        {},
	"createdAt": {},
	"updatedAt": {},
}

// Decode fills rec from a partial JSON object. Store-assigned keys are ignored
// and unknown keys are rejected.
func Decode(rec Record, fields map[string]any) error {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := storeAssigned[k]; ok {
			continue
		}
		clean[k] = v
	}
	return decodeStrict(rec, rec.Collection(), clean)
}

// Merge shallow-merges fields over base and decodes the result into dst.
// The store-assigned fields of base are kept.
func Merge(dst, base Record, fields map[string]any) error {
	raw, err := json.Marshal(base)
	if err != nil {
		return err
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		if _, ok := storeAssigned[k]; ok {
			continue
		}
		merged[k] = v
	}
	if err := decodeStrict(dst, dst.Collection(), merged); err != nil {
		return err
	}
	if from, ok := base.(Secretive); ok {
		if to, ok := dst.(Secretive); ok {
			to.SetSecret(from.Secret())
		}
	}
	return nil
}

func decodeStrict(dst any, c Collection, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, c, err)
	}
	return nil
}

// ToFields converts a record to its JSON object form
func ToFields(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func invalid(c Collection, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, c, fmt.Sprintf(format, args...))
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
