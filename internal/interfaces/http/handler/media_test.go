package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

// upload posts one multipart file part, plus a key field when key is set
func (s *testStore) upload(t *testing.T, token, filename, contentType, key string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if key != "" {
		require.NoError(t, mw.WriteField("key", key))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestMediaHandler_Upload(t *testing.T) {
	png := append([]byte(pngHeader), bytes.Repeat([]byte{0}, 32)...)

	t.Run("requires a session", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, "", "a.png", "image/png", "", png)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("stores under the default prefix", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, s.login(t), "bottle.png", "image/png", "", png)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[UploadResponse](t, w)
		assert.Equal(t, "uploads/bottle.png", resp.Pathname)
		assert.Equal(t, testBlobBaseURL+"/uploads/bottle.png", resp.URL)
		assert.Equal(t, "image/png", resp.ContentType)
		assert.Equal(t, int64(len(png)), resp.Size)

		data, obj, err := s.blobs.Get(context.Background(), "uploads/bottle.png")
		require.NoError(t, err)
		assert.Equal(t, png, data)
		assert.Equal(t, "image/png", obj.ContentType)
	})

	t.Run("folder key gets the filename appended", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, s.login(t), "bottle.png", "image/png", "products/oud/", png)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "products/oud/bottle.png", decode[UploadResponse](t, w).Pathname)
	})

	t.Run("svg is refused", func(t *testing.T) {
		s := newTestStore(t)
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
		w := s.upload(t, s.login(t), "logo.svg", "image/svg+xml", "", svg)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, dto.ErrCodeUnsupportedMedia, decodeError(t, w).Code)
	})

	t.Run("markup declared as png is refused", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, s.login(t), "x.png", "image/png", "", []byte("<html><body>hi</body></html>"))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("document keys are reserved", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, s.login(t), "evil.png", "image/png", productsKey, png)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
	})

	t.Run("traversal key is invalid", func(t *testing.T) {
		s := newTestStore(t)
		w := s.upload(t, s.login(t), "a.png", "image/png", "../secrets.png", png)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).Code)
	})

	t.Run("oversized file is 413", func(t *testing.T) {
		s := newTestStore(t)
		big := append([]byte(pngHeader), bytes.Repeat([]byte{0}, 1<<20)...)
		w := s.upload(t, s.login(t), "big.png", "image/png", "", big)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, decodeError(t, w).Code)
	})

	t.Run("missing file part", func(t *testing.T) {
		s := newTestStore(t)
		w := s.do(t, request{
			method:  http.MethodPost,
			path:    "/api/upload",
			body:    `{}`,
			headers: map[string]string{"Authorization": s.login(t)},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, w).Code)
	})
}

func TestMediaHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	token := s.login(t)
	_, err := s.blobs.Put(context.Background(), "uploads/old.png", []byte(pngHeader), shared.PutOptions{ContentType: "image/png"})
	require.NoError(t, err)

	t.Run("removes the blob", func(t *testing.T) {
		w := s.do(t, request{
			method:  http.MethodDelete,
			path:    "/api/delete-file",
			body:    DeleteFileRequest{Pathname: "uploads/old.png"},
			headers: map[string]string{"Authorization": token},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		_, err := s.blobs.Head(context.Background(), "uploads/old.png")
		assert.ErrorIs(t, err, shared.ErrBlobNotFound)
	})

	t.Run("catalog document cannot be deleted", func(t *testing.T) {
		s.seed(t, perfume("p1", "Oud", 40))
		w := s.do(t, request{
			method:  http.MethodDelete,
			path:    "/api/delete-file",
			body:    DeleteFileRequest{Pathname: productsKey},
			headers: map[string]string{"Authorization": token},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		_, err := s.blobs.Head(context.Background(), productsKey)
		assert.NoError(t, err)
	})

	t.Run("pathname is required", func(t *testing.T) {
		w := s.do(t, request{
			method:  http.MethodDelete,
			path:    "/api/delete-file",
			body:    `{}`,
			headers: map[string]string{"Authorization": token},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})
}

func TestMediaHandler_List(t *testing.T) {
	s := newTestStore(t)
	token := s.login(t)
	s.seed(t, perfume("p1", "Oud", 40))
	for _, key := range []string{"uploads/a.png", "uploads/b.png", "products/oud/c.png"} {
		_, err := s.blobs.Put(context.Background(), key, []byte(pngHeader), shared.PutOptions{ContentType: "image/png"})
		require.NoError(t, err)
	}

	t.Run("default prefix", func(t *testing.T) {
		w := s.do(t, request{method: http.MethodGet, path: "/api/files", headers: map[string]string{"Authorization": token}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ListFilesResponse](t, w)
		assert.True(t, resp.Success)
		var names []string
		for _, f := range resp.Files {
			names = append(names, f.Pathname)
		}
		assert.ElementsMatch(t, []string{"uploads/a.png", "uploads/b.png"}, names)
	})

	t.Run("documents are hidden from listings", func(t *testing.T) {
		w := s.do(t, request{method: http.MethodGet, path: "/api/files?prefix=products", headers: map[string]string{"Authorization": token}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ListFilesResponse](t, w)
		require.Len(t, resp.Files, 1)
		assert.Equal(t, "products/oud/c.png", resp.Files[0].Pathname)
		assert.Equal(t, "c.png", resp.Files[0].Name)
	})

	t.Run("absolute prefix is invalid", func(t *testing.T) {
		w := s.do(t, request{method: http.MethodGet, path: "/api/files?prefix=/etc", headers: map[string]string{"Authorization": token}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
