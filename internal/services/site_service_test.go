package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSiteService() SiteService {
	return NewSiteService(repositories.NewSiteConfigRepository(), repositories.NewBlogRepository())
}

func TestSiteService_Config(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestSiteService()

	pricing, err := svc.Pricing(db)
	require.NoError(t, err)
	assert.JSONEq(t, string(defaultPricing), string(pricing))

	public := true
	_, err = svc.SetConfig(db, " Pricing ", &dto.SiteConfigRequest{Value: json.RawMessage(`{"plans":[]}`), IsPublic: &public})
	require.NoError(t, err)

	pricing, err = svc.Pricing(db)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plans":[]}`, string(pricing))

	// isPublic не передан - остается прежним
	item, err := svc.SetConfig(db, "pricing", &dto.SiteConfigRequest{Value: json.RawMessage(`{"plans":[1]}`)})
	require.NoError(t, err)
	assert.True(t, item.IsPublic)

	_, err = svc.SetConfig(db, "internal", &dto.SiteConfigRequest{Value: json.RawMessage(`"secret"`)})
	require.NoError(t, err)

	cfg, err := svc.PublicConfig(db)
	require.NoError(t, err)
	assert.Contains(t, cfg, "pricing")
	assert.NotContains(t, cfg, "internal")

	all, err := svc.ListConfig(db)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.SetConfig(db, "broken", &dto.SiteConfigRequest{Value: json.RawMessage(`{not json`)})
	requireAppError(t, err, http.StatusBadRequest)
	_, err = svc.SetConfig(db, "  ", &dto.SiteConfigRequest{Value: json.RawMessage(`1`)})
	requireAppError(t, err, http.StatusBadRequest)

	require.NoError(t, svc.DeleteConfig(db, "internal"))
	_, err = svc.GetConfig(db, "internal")
	requireAppError(t, err, http.StatusNotFound)
	requireAppError(t, svc.DeleteConfig(db, "internal"), http.StatusNotFound)
}

func TestSiteService_Blog(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestSiteService()
	admin := testutil.CreateUser(t, db, "admin@test.com", models.UserRoleAdmin, models.SubscriptionFree, nil)

	draft, err := svc.CreatePost(db, admin.ID, &dto.CreateBlogPostRequest{Slug: "Launch", Title: "Launch", Content: "soon"})
	require.NoError(t, err)
	assert.Equal(t, "launch", draft.Slug)
	assert.Nil(t, draft.PublishedAt)
	require.NotNil(t, draft.AuthorID)
	assert.Equal(t, admin.ID, *draft.AuthorID)

	_, err = svc.CreatePost(db, admin.ID, &dto.CreateBlogPostRequest{Slug: "launch", Title: "Again"})
	requireAppError(t, err, http.StatusBadRequest)

	published, err := svc.ListPublishedPosts(db)
	require.NoError(t, err)
	assert.Empty(t, published)
	_, err = svc.GetPublishedPost(db, "launch")
	requireAppError(t, err, http.StatusNotFound)

	yes := true
	post, err := svc.UpdatePost(db, draft.ID, &dto.UpdateBlogPostRequest{Published: &yes})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	firstPublished := *post.PublishedAt

	// повторная публикация не двигает дату
	no := false
	_, err = svc.UpdatePost(db, draft.ID, &dto.UpdateBlogPostRequest{Published: &no})
	require.NoError(t, err)
	post, err = svc.UpdatePost(db, draft.ID, &dto.UpdateBlogPostRequest{Published: &yes})
	require.NoError(t, err)
	assert.True(t, firstPublished.Equal(*post.PublishedAt))

	published, err = svc.ListPublishedPosts(db)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "launch", published[0].Slug)

	got, err := svc.GetPublishedPost(db, "LAUNCH")
	require.NoError(t, err)
	assert.Equal(t, "soon", got.Content)

	require.NoError(t, svc.DeletePost(db, draft.ID))
	_, err = svc.GetPost(db, draft.ID)
	requireAppError(t, err, http.StatusNotFound)
	_, err = svc.GetPost(db, "not-a-uuid")
	requireAppError(t, err, http.StatusNotFound)
}
