package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingsScanPartialColumn(t *testing.T) {
	var r Ratings
	require.NoError(t, r.Scan([]byte(`{"speed":4,"passing":2}`)))
	assert.Equal(t, Ratings{Passing: 2, Speed: 4}, r)
}

func TestRatingsScanNull(t *testing.T) {
	r := Ratings{Passing: 5, Defense: 3}
	require.NoError(t, r.Scan(nil))
	assert.Equal(t, Ratings{}, r)
}

func TestRatingsScanString(t *testing.T) {
	var r Ratings
	require.NoError(t, r.Scan(`{"conditioning":1}`))
	assert.Equal(t, 1, r.Conditioning)
}

func TestRatingsScanRejectsUnknownType(t *testing.T) {
	var r Ratings
	assert.Error(t, r.Scan(42))
}

func TestRatingsValueIsCompleteJSON(t *testing.T) {
	v, err := Ratings{Finishing: 3}.Value()
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(v.([]byte), &decoded))
	assert.Len(t, decoded, 5)
	assert.Equal(t, 3, decoded["finishing"])
	assert.Equal(t, 0, decoded["defense"])
}
