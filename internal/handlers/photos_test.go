package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teataster/teataster/internal/session"
)

func TestAttachAlbum_CapsPhotos(t *testing.T) {
	d := newWizardDeps(t)
	flow := d.Sessions.StartCreate(1)
	flow.Step = session.StepPhotos
	flow.Draft.PhotoIDs = []string{"p0"}

	total, truncated, ok := d.attachAlbum(1, []string{"a", "b", "c", "d"})

	require.True(t, ok)
	assert.True(t, truncated)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"p0", "a", "b"}, flow.Draft.PhotoIDs)
}

func TestAttachAlbum_FitsWithinCap(t *testing.T) {
	d := newWizardDeps(t)
	flow := d.Sessions.StartCreate(1)
	flow.Step = session.StepPhotos

	total, truncated, ok := d.attachAlbum(1, []string{"a", "b"})

	require.True(t, ok)
	assert.False(t, truncated)
	assert.Equal(t, 2, total)
}

func TestAttachAlbum_IgnoredOutsidePhotoStep(t *testing.T) {
	d := newWizardDeps(t)
	flow := d.Sessions.StartCreate(1)
	flow.Step = session.StepRating

	_, _, ok := d.attachAlbum(1, []string{"a"})

	assert.False(t, ok)
	assert.Empty(t, flow.Draft.PhotoIDs)

	_, _, ok = d.attachAlbum(2, []string{"a"})
	assert.False(t, ok, "no session at all")
}

func TestAppendPhotos_FullDraftAcceptsNothing(t *testing.T) {
	draft := &session.Draft{PhotoIDs: []string{"a", "b", "c"}}

	kept := appendPhotos(draft, []string{"d"})

	assert.Equal(t, 0, kept)
	assert.Equal(t, []string{"a", "b", "c"}, draft.PhotoIDs)
}
