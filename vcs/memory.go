package vcs

import (
	"context"
	"sort"
	"strings"
)

// Memory is a ConfigStore backed by a map.
type Memory struct {
	values map[string]string
	// failWrites and failReads make operations fail, for exercising error
	// paths.
	failWrites error
	failReads  error
}

func NewMemory(entries ...Entry) *Memory {
	m := &Memory{values: make(map[string]string)}
	for _, e := range entries {
		m.values[e.Key] = e.Value
	}
	return m
}

// SetValues is a chainable helper for tests.
func (m *Memory) SetValues(kv map[string]string) *Memory {
	for k, v := range kv {
		m.values[k] = v
	}
	return m
}

// FailWrites makes subsequent writes fail with err.
func (m *Memory) FailWrites(err error) *Memory {
	m.failWrites = err
	return m
}

// FailReads makes subsequent reads fail with err.
func (m *Memory) FailReads(err error) *Memory {
	m.failReads = err
	return m
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if m.failReads != nil {
		return "", false, &StoreError{Op: OpGet, Key: key, Err: m.failReads}
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if m.failWrites != nil {
		return &StoreError{Op: OpSet, Key: key, Err: m.failWrites}
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	if m.failWrites != nil {
		return &StoreError{Op: OpRemove, Key: key, Err: m.failWrites}
	}
	delete(m.values, key)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Entry, error) {
	if m.failReads != nil {
		return nil, &StoreError{Op: OpList, Key: prefix, Err: m.failReads}
	}
	var entries []Entry
	for k, v := range m.values {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, Entry{Key: k, Value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int { return len(m.values) }
