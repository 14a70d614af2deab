package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	require.Len(t, s.Users, 1)
	assert.Equal(t, "admin", s.Users[0]["username"])
	assert.Equal(t, "ADMIN", s.Users[0]["role"])

	require.Len(t, s.Specializations, 4)
	assert.Equal(t, "UNIT_A1", s.Specializations[0].Code)
	assert.Equal(t, "الطاقة الهجينة", s.Specializations[3].Title)
}

func TestReadSeedRejectsUnknownKeys(t *testing.T) {
	_, err := ReadSeed(strings.NewReader("users: []\nproducts: []\n"))
	assert.Error(t, err)

	s, err := ReadSeed(strings.NewReader("records:\n  partners:\n    - name: ACME\n"))
	require.NoError(t, err)
	assert.Equal(t, "ACME", s.Records["partners"][0]["name"])
}
