package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectServer struct {
	body   []byte
	auth   []string
	status int
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.auth = append(o.auth, r.Header.Get("Authorization"))
	if o.status != 0 {
		w.WriteHeader(o.status)
		return
	}
	switch r.Method {
	case http.MethodPut:
		o.body, _ = io.ReadAll(r.Body)
	case http.MethodGet:
		_, _ = w.Write(o.body)
	}
}

func TestPutAndGetBinary(t *testing.T) {
	obj := &objectServer{}
	srv := httptest.NewServer(obj)
	defer srv.Close()

	payload := []byte{0x00, 0xff, 0xfe, 0x0a, 0x0d, 0x80}
	client := NewSignedURLClient(SignedURLConfig{})
	ctx := context.Background()

	require.NoError(t, client.PutObject(ctx, srv.URL+"/o?sig=abc", bytes.NewReader(payload), int64(len(payload))))
	assert.Equal(t, payload, obj.body)

	var out bytes.Buffer
	n, err := client.GetObject(ctx, srv.URL+"/o?sig=abc", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, out.Bytes())
	assert.Equal(t, []string{"", ""}, obj.auth)
}

func TestTransferWithProgress(t *testing.T) {
	obj := &objectServer{}
	srv := httptest.NewServer(obj)
	defer srv.Close()

	var progress bytes.Buffer
	client := NewSignedURLClient(SignedURLConfig{ProgressOut: &progress})
	payload := bytes.Repeat([]byte("a"), 4096)

	require.NoError(t, client.PutObject(context.Background(), srv.URL, bytes.NewReader(payload), int64(len(payload))))
	assert.Equal(t, payload, obj.body)
}

func TestTransferErrorRedactsSignature(t *testing.T) {
	obj := &objectServer{status: http.StatusForbidden}
	srv := httptest.NewServer(obj)
	defer srv.Close()

	client := NewSignedURLClient(SignedURLConfig{})
	_, err := client.GetObject(context.Background(), srv.URL+"/o?X-Amz-Signature=secret", io.Discard)

	var te *TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
	assert.NotContains(t, err.Error(), "secret")
}
