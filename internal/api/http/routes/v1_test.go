package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	editordomain "github.com/davinci-studio/studio-backend/internal/editor/domain"
	editorsvc "github.com/davinci-studio/studio-backend/internal/editor/service"
	"github.com/davinci-studio/studio-backend/internal/gallery/repository"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
	gensvc "github.com/davinci-studio/studio-backend/internal/generation/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator func(req gendomain.GenerationRequest) (gendomain.GeneratedImage, error)

func (f stubGenerator) Generate(_ context.Context, req gendomain.GenerationRequest) (gendomain.GeneratedImage, error) {
	return f(req)
}

type testAPI struct {
	router       *gin.Engine
	orchestrator *gensvc.Orchestrator
	store        *repository.RedisStore
}

func setupAPI(t *testing.T, gen stubGenerator, perMinute int) *testAPI {
	return setupAPIWithLimits(t, gen, perMinute, 0)
}

func setupAPIWithLimits(t *testing.T, gen stubGenerator, perMinute, clientPerMinute int) *testAPI {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := repository.NewRedisStore(client, time.Hour)
	gallery := gallerysvc.NewGallery(store)
	orch := gensvc.NewOrchestrator(gen, gallery, gallery, gensvc.Options{Timeout: time.Second, Concurrency: 4, DefaultModel: "flux"})

	r := gin.New()
	RegisterV1(r, V1Deps{
		Gallery:                    gallery,
		Orchestrator:               orch,
		Editors:                    editorsvc.NewManager(time.Hour),
		GenerationsPerMinute:       perMinute,
		ClientGenerationsPerMinute: clientPerMinute,
	})
	return &testAPI{router: r, orchestrator: orch, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

type batchBody struct {
	Batch gendomain.BatchResult `json:"batch"`
}

type imagesBody struct {
	Images    []gendomain.GeneratedImageRecord `json:"images"`
	Bookmarks []string                         `json:"bookmarks"`
}

type editorBody struct {
	Editor editordomain.SessionView `json:"editor"`
}

func okGenerator(req gendomain.GenerationRequest) (gendomain.GeneratedImage, error) {
	return gendomain.GeneratedImage{URL: "https://cdn.test/" + string(req.AspectRatio)}, nil
}

func TestGenerationFlow(t *testing.T) {
	api := setupAPI(t, okGenerator, 0)
	base := "/api/v1/sessions/s1"

	var batch batchBody
	code := api.do(t, http.MethodPost, base+"/generations", gin.H{
		"prompt":        "a lighthouse",
		"aspect_ratios": []string{"1:1", "16:9"},
		"batch_count":   2,
	}, &batch)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, batch.Batch.Records, 4)
	assert.Equal(t, 4, batch.Batch.Requested)
	assert.Empty(t, batch.Batch.Error)
	assert.Equal(t, "flux", batch.Batch.Records[0].Model)

	var images imagesBody
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, base+"/images", nil, &images))
	require.Len(t, images.Images, 4)
	for i, rec := range batch.Batch.Records {
		assert.Equal(t, rec.ID, images.Images[i].ID)
	}

	api.orchestrator.Wait()
	persisted, err := api.store.LoadImages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, 4)

	target := images.Images[1].ID
	var toggled struct {
		Bookmarked bool `json:"bookmarked"`
	}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/images/"+target+"/bookmark", nil, &toggled))
	assert.True(t, toggled.Bookmarked)

	var onlyBookmarked imagesBody
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, base+"/images?bookmarked=true", nil, &onlyBookmarked))
	require.Len(t, onlyBookmarked.Images, 1)
	assert.Equal(t, target, onlyBookmarked.Images[0].ID)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, base+"/images/"+target, nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, base+"/images", nil, &images))
	assert.Len(t, images.Images, 3)
	assert.Empty(t, images.Bookmarks)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, base+"/images/"+target, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, base+"/images/"+target+"/bookmark", nil, nil))
}

func TestGenerationFailures(t *testing.T) {
	t.Run("every request failing answers 502", func(t *testing.T) {
		api := setupAPI(t, func(gendomain.GenerationRequest) (gendomain.GeneratedImage, error) {
			return gendomain.GeneratedImage{}, &gendomain.GenerationFailure{StatusCode: 500, Message: "upstream down"}
		}, 0)

		var batch batchBody
		code := api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{"prompt": "x"}, &batch)
		assert.Equal(t, http.StatusBadGateway, code)
		assert.Equal(t, "generation failed: generator returned status 500: upstream down", batch.Batch.Error)
	})

	t.Run("partial failure keeps the successes", func(t *testing.T) {
		api := setupAPI(t, func(req gendomain.GenerationRequest) (gendomain.GeneratedImage, error) {
			if req.AspectRatio == "9:16" {
				return gendomain.GeneratedImage{}, errors.New("boom")
			}
			return okGenerator(req)
		}, 0)

		var batch batchBody
		code := api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{
			"prompt": "x", "aspect_ratios": []string{"1:1", "9:16"},
		}, &batch)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, batch.Batch.Records, 1)
		assert.Equal(t, "1 of 2 generations failed: boom", batch.Batch.Error)
	})

	t.Run("invalid submission answers 400", func(t *testing.T) {
		api := setupAPI(t, okGenerator, 0)
		code := api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{
			"prompt": "x", "aspect_ratios": []string{"2:1"},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("rate limited per session", func(t *testing.T) {
		api := setupAPI(t, okGenerator, 1)
		assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{"prompt": "x"}, nil))
		assert.Equal(t, http.StatusTooManyRequests, api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{"prompt": "x"}, nil))
	})

	t.Run("new session ids do not escape the client limit", func(t *testing.T) {
		api := setupAPIWithLimits(t, okGenerator, 10, 2)
		assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{"prompt": "x"}, nil))
		assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/v1/sessions/s2/generations", gin.H{"prompt": "x"}, nil))
		assert.Equal(t, http.StatusTooManyRequests, api.do(t, http.MethodPost, "/api/v1/sessions/s3/generations", gin.H{"prompt": "x"}, nil))
	})
}

func TestMetricsRoute(t *testing.T) {
	api := setupAPI(t, okGenerator, 0)
	api.do(t, http.MethodPost, "/api/v1/sessions/s1/generations", gin.H{"prompt": "x", "batch_count": 3}, nil)

	var body struct {
		Metrics gensvc.MetricsSnapshot `json:"metrics"`
	}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/generation/metrics", nil, &body))
	assert.Equal(t, int64(1), body.Metrics.Batches)
	assert.Equal(t, int64(3), body.Metrics.Requests)
}

func TestEditorFlow(t *testing.T) {
	api := setupAPI(t, okGenerator, 0)
	base := "/api/v1/sessions/s1"

	var batch batchBody
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/generations", gin.H{"prompt": "x"}, &batch))
	imageID := batch.Batch.Records[0].ID

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, base+"/editor", gin.H{"image_id": "nope"}, nil))

	var ed editorBody
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, base+"/editor", gin.H{"image_id": imageID}, &ed))
	editorPath := base + "/editor/" + ed.Editor.ID
	assert.Equal(t, editordomain.DefaultSnapshot(), ed.Editor.Live)

	edited := editordomain.DefaultSnapshot()
	edited.Rotation = 90
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, editorPath, edited, &ed))
	assert.Equal(t, editordomain.PhasePending, ed.Editor.Phase)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, editorPath+"/undo", nil, &ed))
	assert.Equal(t, editordomain.DefaultSnapshot(), ed.Editor.Live)
	assert.True(t, ed.Editor.CanRedo)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, editorPath+"/redo", nil, &ed))
	assert.Equal(t, edited, ed.Editor.Live)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, editorPath+"/reset", nil, &ed))
	assert.Equal(t, 0, ed.Editor.Cursor)
	assert.Equal(t, 1, ed.Editor.HistoryLen)

	foreign := "/api/v1/sessions/s2/editor/" + ed.Editor.ID
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, foreign, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, foreign+"/undo", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, foreign, nil, nil))

	bad := editordomain.DefaultSnapshot()
	bad.Scale = 1000
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, editorPath, bad, nil))

	require.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, editorPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, editorPath, nil, nil))
}
