package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/storage"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloadService(t *testing.T, allowPublic bool) (DownloadService, storage.Storage) {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.Config{Type: "local", BasePath: t.TempDir()})
	require.NoError(t, err)
	return NewDownloadService(repositories.NewDownloadRepository(), store, access.NewPolicy(allowPublic), 1024), store
}

func TestDownloadServe_EntitlementAndCounter(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc, _ := newTestDownloadService(t, true)
	ctx := context.Background()

	premium, err := svc.Upload(ctx, db, "", &dto.CreateDownloadRequest{Title: "Pro pack", AccessLevel: "PRO"}, &dto.UploadedFile{
		Reader: strings.NewReader("secret"), FileName: "pack.zip", MimeType: "application/zip", Size: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccessPremium, premium.AccessLevel)

	free := testutil.CreateUser(t, db, "free@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	past := time.Now().UTC().Add(-time.Hour)
	lapsed := testutil.CreateUser(t, db, "lapsed@test.com", models.UserRoleUser, models.SubscriptionPro, &past)
	pro := testutil.CreateUser(t, db, "pro@test.com", models.UserRoleUser, models.SubscriptionPro, nil)

	_, err = svc.Serve(ctx, db, premium.ID, nil)
	requireAppError(t, err, http.StatusUnauthorized)
	_, err = svc.Serve(ctx, db, premium.ID, access.IdentityFromUser(free))
	requireAppError(t, err, http.StatusForbidden)
	_, err = svc.Serve(ctx, db, premium.ID, access.IdentityFromUser(lapsed))
	requireAppError(t, err, http.StatusForbidden)

	stream, err := svc.Serve(ctx, db, premium.ID, access.IdentityFromUser(pro))
	require.NoError(t, err)
	body, err := io.ReadAll(stream.Reader)
	require.NoError(t, err)
	require.NoError(t, stream.Reader.Close())
	assert.Equal(t, "secret", string(body))
	assert.Equal(t, "pack.zip", stream.FileName)
	assert.Equal(t, "application/zip", stream.MimeType)

	list, err := svc.List(db, access.IdentityFromUser(free))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].CanAccess)
	assert.EqualValues(t, 1, list[0].DownloadCount)

	_, err = svc.Serve(ctx, db, "nope", nil)
	requireAppError(t, err, http.StatusNotFound)
}

func TestDownloadServe_MissingFileIs404(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc, store := newTestDownloadService(t, true)
	ctx := context.Background()

	d := &models.Download{Title: "Ghost", FileName: "ghost.txt", FilePath: "downloads/ghost.txt", AccessLevel: models.AccessPublic}
	require.NoError(t, repositories.NewDownloadRepository().Create(db, d))

	exists, err := store.Exists(ctx, d.FilePath)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = svc.Serve(ctx, db, d.ID, nil)
	requireAppError(t, err, http.StatusNotFound)

	got, err := repositories.NewDownloadRepository().FindByID(db, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.DownloadCount)
}

func TestDownload_PublicDisabledRequiresLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc, _ := newTestDownloadService(t, false)
	ctx := context.Background()

	d, err := svc.Upload(ctx, db, "", &dto.CreateDownloadRequest{Title: "Free", AccessLevel: "PUBLIC"}, &dto.UploadedFile{
		Reader: strings.NewReader("x"), FileName: "free.txt", MimeType: "text/plain", Size: 1,
	})
	require.NoError(t, err)

	_, err = svc.Serve(ctx, db, d.ID, nil)
	requireAppError(t, err, http.StatusUnauthorized)

	user := testutil.CreateUser(t, db, "u@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	stream, err := svc.Serve(ctx, db, d.ID, access.IdentityFromUser(user))
	require.NoError(t, err)
	stream.Reader.Close()
}

func TestDownloadUpload_SanitizesAndLimits(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc, store := newTestDownloadService(t, true)
	ctx := context.Background()
	uploader := testutil.CreateUser(t, db, "admin@test.com", models.UserRoleAdmin, models.SubscriptionFree, nil)

	resp, err := svc.Upload(ctx, db, uploader.ID, &dto.CreateDownloadRequest{
		Title:       "  Pricing guide ",
		AccessLevel: "REGISTERED",
		Tags:        []string{"guide"},
	}, &dto.UploadedFile{
		Reader:   strings.NewReader("pdf-bytes"),
		FileName: `..\..\evil "guide".pdf`,
		MimeType: "application/pdf",
		Size:     9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pricing guide", resp.Title)
	assert.NotContains(t, resp.FileName, `"`)
	assert.NotContains(t, resp.FileName, "..")
	assert.Equal(t, []string{"guide"}, resp.Tags)

	_, err = svc.Upload(ctx, db, uploader.ID, &dto.CreateDownloadRequest{Title: "Big", AccessLevel: "PUBLIC"}, &dto.UploadedFile{
		Reader: strings.NewReader("x"), FileName: "big.bin", Size: 4096,
	})
	requireAppError(t, err, http.StatusBadRequest)

	title := "Renamed"
	updated, err := svc.Update(db, resp.ID, &dto.UpdateDownloadRequest{Title: &title, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)

	record, err := repositories.NewDownloadRepository().FindByID(db, resp.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, db, resp.ID))

	exists, err := store.Exists(ctx, record.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)

	err = svc.Delete(ctx, db, resp.ID)
	requireAppError(t, err, http.StatusNotFound)
}
