package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{"default port", "ftp://data.example.gov/crime/extract.csv", "data.example.gov:21", "/crime/extract.csv", false},
		{"explicit port", "ftp://data.example.gov:2121/extract.csv", "data.example.gov:2121", "/extract.csv", false},
		{"wrong scheme", "http://example.com/x.csv", "", "", true},
		{"no path", "ftp://example.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
