package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"adds database", "mongodb://localhost:27017", "mongodb://localhost:27017/lms"},
		{"adds database after slash", "mongodb://localhost:27017/", "mongodb://localhost:27017/lms"},
		{"keeps explicit database", "mongodb://localhost:27017/other", "mongodb://localhost:27017/other"},
		{"keeps query", "mongodb://user:pw@db:27017/?authSource=admin", "mongodb://user:pw@db:27017/lms?authSource=admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := databaseURL(tt.uri, "lms")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntArg(t *testing.T) {
	n, err := intArg([]string{"steps", "-1"}, "steps")
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	_, err = intArg([]string{"force"}, "force")
	assert.Error(t, err)

	_, err = intArg([]string{"force", "x"}, "force")
	assert.Error(t, err)
}
