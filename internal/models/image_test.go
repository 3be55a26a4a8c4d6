package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillLikedBy(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	img := Image{
		ID:    7,
		Likes: []ImageLike{{ImageID: 7, UserID: u1}, {ImageID: 7, UserID: u2}},
	}

	img.FillLikedBy()
	assert.Equal(t, []string{u1.String(), u2.String()}, img.LikedBy)

	img.Likes = nil
	img.FillLikedBy()
	assert.NotNil(t, img.LikedBy)
	assert.Empty(t, img.LikedBy)
}

func TestLikedByUser(t *testing.T) {
	u := uuid.New()
	img := Image{Likes: []ImageLike{{UserID: u}}}
	assert.True(t, img.LikedByUser(u))
	assert.False(t, img.LikedByUser(uuid.New()))
}

func TestImageJSONShape(t *testing.T) {
	owner := uuid.New()
	img := Image{
		ID:         3,
		Owner:      OwnerSnapshot{ID: owner, Name: "Alice", Username: "alice"},
		Public:     true,
		StorageKey: "abc.png",
	}
	img.FillLikedBy()

	raw, err := json.Marshal(&img)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "abc.png", decoded["key"])
	assert.Equal(t, []interface{}{}, decoded["liked_by"])

	user, ok := decoded["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, owner.String(), user["id"])
}
