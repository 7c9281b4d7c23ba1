package service

import (
	"context"
	"testing"

	"socialgraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaURLs(v *models.PostView) []string {
	urls := make([]string, len(v.Medias))
	for i, m := range v.Medias {
		urls[i] = m.URL
	}
	return urls
}

func TestPostService_EditRequiresAuthor(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, nil)

	_, err := f.svc.Edit(context.Background(), f.viewer.ID, p.ID, ReplaceContent{Content: "x"})
	assertAppError(t, err, 403, models.CodeNotAccess)

	_, err = f.svc.Edit(context.Background(), f.author.ID, p.ID, nil)
	assertAppError(t, err, 400, models.CodeParamsValueInvalid)
}

func TestPostService_EditContentAndStatus(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	p := f.post(t, nil)

	view, err := f.svc.Edit(ctx, f.author.ID, p.ID, ReplaceContent{Content: "rewritten"})
	require.NoError(t, err)
	assert.Equal(t, "rewritten", view.Content)

	view, err = f.svc.Edit(ctx, f.author.ID, p.ID, SetStatus{Status: "happy"})
	require.NoError(t, err)
	assert.Equal(t, "happy", view.Status)
	assert.Equal(t, "rewritten", view.Content)
}

func TestPostService_EditInsertImageAtPosition(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, nil, images(2)...)

	view, err := f.svc.Edit(context.Background(), f.author.ID, p.ID, InsertImages{
		Positions: []int{2},
		Files:     files("new.png"),
	})
	require.NoError(t, err)
	require.Len(t, view.Medias, 3)
	assert.Equal(t, []string{"/img/a", "/post/images/new.png", "/img/b"}, mediaURLs(view))
	for i, m := range view.Medias {
		assert.Equal(t, i+1, m.Order)
	}
}

func TestPostService_EditInsertImagesRules(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		medias []models.Media
		op     InsertImages
		code   int
	}{
		{
			name:   "positions misaligned with files",
			medias: images(1),
			op:     InsertImages{Positions: []int{1, 2}, Files: files("x.png")},
			code:   models.CodeParamsValueInvalid,
		},
		{
			name:   "no files",
			medias: images(1),
			op:     InsertImages{},
			code:   models.CodeParamsValueInvalid,
		},
		{
			name:   "more than four images",
			medias: images(3),
			op:     InsertImages{Positions: []int{1, 1}, Files: files("x.png", "y.png")},
			code:   models.CodeMaxNumberImages,
		},
		{
			name:   "post has a video",
			medias: []models.Media{{URL: "/v.mp4", Type: models.MediaTypeVideo, Order: 1}},
			op:     InsertImages{Positions: []int{1}, Files: files("x.png")},
			code:   models.CodeOnlyImagesOrVideos,
		},
		{
			name:   "position out of range",
			medias: images(1),
			op:     InsertImages{Positions: []int{3}, Files: files("x.png")},
			code:   models.CodeParamsValueInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.post(t, nil, tt.medias...)
			_, err := f.svc.Edit(ctx, f.author.ID, p.ID, tt.op)
			assertAppError(t, err, 400, tt.code)

			view, err := f.svc.GetByID(ctx, f.author.ID, p.ID)
			require.NoError(t, err)
			assert.Len(t, view.Medias, len(tt.medias), "rejected edit must not change media")
		})
	}
}

func TestPostService_EditInsertSkipsFailedUpload(t *testing.T) {
	f := newPostFixture(t)
	f.store.fail["bad.png"] = true
	p := f.post(t, nil, images(1)...)

	view, err := f.svc.Edit(context.Background(), f.author.ID, p.ID, InsertImages{
		Positions: []int{1, 3},
		Files:     files("bad.png", "ok.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/img/a", "/post/images/ok.png"}, mediaURLs(view))
}

func TestPostService_EditDeleteMedia(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	p := f.post(t, nil, images(3)...)
	ids := []uint{p.Medias[0].ID, p.Medias[1].ID, p.Medias[2].ID}

	_, err := f.svc.Edit(ctx, f.author.ID, p.ID, DeleteMedia{MediaIDs: []uint{ids[0], 9999}})
	assertAppError(t, err, 400, models.CodeParamsValueInvalid)

	_, err = f.svc.Edit(ctx, f.author.ID, p.ID, DeleteMedia{MediaIDs: ids[:2], Files: files("r.png")})
	assertAppError(t, err, 400, models.CodeParamsValueInvalid)

	view, err := f.svc.Edit(ctx, f.author.ID, p.ID, DeleteMedia{MediaIDs: []uint{ids[1]}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/img/a", "/img/c"}, mediaURLs(view))

	first := view.Medias[0].ID
	view, err = f.svc.Edit(ctx, f.author.ID, p.ID, DeleteMedia{MediaIDs: []uint{first}, Files: files("swap.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{"/post/images/swap.png", "/img/c"}, mediaURLs(view))
}

func TestPostService_EditAttachVideo(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	withImages := f.post(t, nil, images(1)...)
	_, err := f.svc.Edit(ctx, f.author.ID, withImages.ID, AttachVideo{File: files("v.mp4")[0]})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	p := f.post(t, nil, models.Media{URL: "/old.mp4", Type: models.MediaTypeVideo, Order: 1})
	view, err := f.svc.Edit(ctx, f.author.ID, p.ID, AttachVideo{File: files("v.mp4")[0]})
	require.NoError(t, err)
	assert.Equal(t, []string{"/post/videos/v.mp4"}, mediaURLs(view))
	assert.Equal(t, 0, view.CountMedia(models.MediaTypeImage))

	_, err = f.svc.Edit(ctx, f.author.ID, p.ID, AttachVideo{})
	assertAppError(t, err, 400, models.CodeParamsValueInvalid)
}

func TestPostService_EditRejectsUnexpectedMedia(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	withImages := f.post(t, nil, images(2)...)
	_, err := f.svc.Edit(ctx, f.author.ID, withImages.ID, InsertImages{Positions: []int{1}, Files: files("clip.mp4")})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	_, err = f.svc.Edit(ctx, f.author.ID, withImages.ID, DeleteMedia{
		MediaIDs: []uint{withImages.Medias[0].ID},
		Files:    files("clip.mp4"),
	})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	withVideo := f.post(t, nil, models.Media{URL: "/old.mp4", Type: models.MediaTypeVideo, Order: 1})
	_, err = f.svc.Edit(ctx, f.author.ID, withVideo.ID, AttachVideo{File: files("still.png")[0]})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	_, err = f.svc.Edit(ctx, f.author.ID, withVideo.ID, DeleteMedia{
		MediaIDs: []uint{withVideo.Medias[0].ID},
		Files:    files("still.png"),
	})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	assert.Empty(t, f.store.uploads)
	view, err := f.svc.GetByID(ctx, f.author.ID, withVideo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/old.mp4"}, mediaURLs(view))
}
