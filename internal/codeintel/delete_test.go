package codeintel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmDeleteMessage(t *testing.T) {
	msg := ConfirmDeleteMessage(&Index{InputCommit: "0123456789abcdef"})
	assert.Equal(t, "Delete auto-index record for commit 0123456?", msg)

	assert.Contains(t, ConfirmDeleteMessage(&Index{InputCommit: "abc"}), "commit abc?")
}

func TestDelete_Declined(t *testing.T) {
	svc := &fakeService{}
	var asked string
	var phases []Deletion

	d, err := Delete(context.Background(), svc, withState(StateQueued), func(m string) bool {
		asked = m
		return false
	}, func(d Deletion) { phases = append(phases, d) })

	require.NoError(t, err)
	assert.Equal(t, DeletionIdle, d.Phase)
	assert.Empty(t, svc.deleted, "no delete call when declined")
	assert.Empty(t, phases, "no state change when declined")
	assert.Equal(t, "Delete auto-index record for commit deadbee?", asked)
}

func TestDelete_Succeeds(t *testing.T) {
	svc := &fakeService{}
	var phases []DeletionPhase

	d, err := Delete(context.Background(), svc, withState(StateCompleted), func(string) bool { return true },
		func(d Deletion) { phases = append(phases, d.Phase) })

	require.NoError(t, err)
	assert.True(t, d.Deleted())
	assert.Equal(t, []DeletionPhase{DeletionLoading}, phases)
	assert.Equal(t, []string{"idx1"}, svc.deleted)
}

func TestDelete_Fails(t *testing.T) {
	boom := errors.New("permission denied")
	svc := &fakeService{deleteErr: boom}

	d, err := Delete(context.Background(), svc, withState(StateErrored), func(string) bool { return true }, nil)

	require.NoError(t, err)
	assert.True(t, d.Failed())
	assert.ErrorIs(t, d.Err, boom)
	assert.Equal(t, "error", d.Phase.String())
}

func TestDelete_NoRecord(t *testing.T) {
	svc := &fakeService{}
	_, err := Delete(context.Background(), svc, nil, func(string) bool { return true }, nil)
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Empty(t, svc.deleted)
}
