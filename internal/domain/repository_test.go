package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: 50}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: 50}, Page{Limit: 501, Offset: -3}.Normalize())
	assert.Equal(t, Page{Limit: 500, Offset: 10}, Page{Limit: 500, Offset: 10}.Normalize())
}

func TestHookRegistry_RunsEveryHook(t *testing.T) {
	r := NewHookRegistry[string]()
	var seen []string
	first := errors.New("cash ledger down")

	r.OnAfterVoid(func(_ context.Context, doc string) error {
		seen = append(seen, "a:"+doc)
		return first
	})
	r.OnAfterVoid(func(_ context.Context, doc string) error {
		seen = append(seen, "b:"+doc)
		return errors.New("second")
	})
	r.OnAfterCreate(func(context.Context, string) error {
		t.Fatal("create hook must not run on void")
		return nil
	})

	err := r.Run(context.Background(), AfterVoid, "P-2026-00001")
	assert.Same(t, first, err)
	assert.Equal(t, []string{"a:P-2026-00001", "b:P-2026-00001"}, seen)
}

func TestHookRegistry_NoHooks(t *testing.T) {
	assert.NoError(t, NewHookRegistry[int]().Run(context.Background(), AfterUpdate, 1))
}
