package relate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/mit/model"
	"github.com/jeffrom/mit/vcs"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	mem := vcs.NewMemory()
	s := New(mem)

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, " JIRA-42 "))
	r, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.Relation{Ticket: "JIRA-42"}, r)

	v, _, _ := mem.Get(ctx, "mit.relate.ticket-number")
	assert.Equal(t, "JIRA-42", v)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, New(vcs.NewMemory()).Set(ctx, "  "), ErrEmptyTicket)

	err := New(vcs.NewMemory().FailWrites(errors.New("read-only"))).Set(ctx, "JIRA-1")
	assert.ErrorIs(t, err, vcs.ErrWriteFailed)

	_, _, err = New(vcs.NewMemory().FailReads(errors.New("locked"))).Get(ctx)
	assert.ErrorIs(t, err, vcs.ErrReadFailed)
}
