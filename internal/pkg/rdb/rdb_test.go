package rdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		addresses []string
		wantErr   string
	}{
		{name: "single url", addresses: []string{"redis://localhost:6379/0"}},
		{name: "cluster", addresses: []string{"localhost:7000", "localhost:7001"}},
		{name: "no addresses", wantErr: "cannot be empty"},
		{name: "blank address", addresses: []string{" "}, wantErr: "dsn cannot be empty"},
		{name: "bad url", addresses: []string{"localhost:6379"}, wantErr: "invalid URL scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewClient(tt.addresses)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, r.Client())
			require.NoError(t, r.Close())
		})
	}
}

func TestNewClientFromDsn(t *testing.T) {
	r, err := NewClientFromDsn("localhost:7000, localhost:7001,")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:7000", "localhost:7001"}, r.addresses)
	require.NoError(t, r.Close())

	_, err = NewClientFromDsn(" , ")
	require.Error(t, err)
}
