package file

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	tests := []struct {
		name       string
		inputBytes []byte
		status     int
		wantErr    bool
	}{
		{
			name:       "success",
			inputBytes: []byte("test\n"),
			status:     http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "not found",
			inputBytes: []byte("not found"),
			status:     http.StatusNotFound,
			wantErr:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, err := w.Write(tc.inputBytes)
				assert.NoError(t, err)
			}))
			defer srv.Close()

			res, err := Download(t.Context(), srv.Client(), srv.URL)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.inputBytes, res)
			}
		})
	}
}

func TestSaveTemp(t *testing.T) {
	tests := []struct {
		name      string
		content   []byte
		extension string
		wantSize  int64
	}{
		{
			name:      "success",
			content:   []byte("test\n"),
			extension: ".json",
			wantSize:  5,
		},
		{
			name:      "empty file",
			content:   []byte(""),
			extension: ".dat",
			wantSize:  0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path, err := SaveTemp(tc.content, tc.extension)
			require.NoError(t, err)
			defer RemoveTemp(path)

			assert.True(t, strings.HasSuffix(path, tc.extension))

			stat, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSize, stat.Size())
		})
	}
}

func TestRead(t *testing.T) {
	path, err := SaveTemp([]byte("content"), ".txt")
	require.NoError(t, err)
	defer RemoveTemp(path)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)

	_, err = Read(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestRemoveTemp(t *testing.T) {
	path, err := SaveTemp([]byte("x"), ".txt")
	require.NoError(t, err)

	RemoveTemp(path)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestTemp(t *testing.T) {
	var temp Temp

	path, err := temp.Save([]byte(`{"a":1}`), ".json")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json"))

	data, err := Read(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	temp.Remove(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
