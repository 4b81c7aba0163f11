package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgbazaar/marketplace-backend/internal/api/routes"
	"github.com/tgbazaar/marketplace-backend/internal/config"
	"github.com/tgbazaar/marketplace-backend/internal/database"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Init()

	dsn := fmt.Sprintf("file:handlerdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	router := gin.New()
	routes.SetupRoutes(router, db, &config.Config{RateLimitRPS: 1000})
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func userData(telegramID int64, username string) map[string]interface{} {
	return map[string]interface{}{
		"id":         telegramID,
		"username":   username,
		"first_name": username,
	}
}

func userDataQuery(telegramID int64, username string) string {
	raw, _ := json.Marshal(userData(telegramID, username))
	return "user_data=" + url.QueryEscape(string(raw))
}

func createPostViaAPI(t *testing.T, router *gin.Engine, telegramID int64, title string) string {
	t.Helper()
	w, resp := doJSON(t, router, http.MethodPost, "/create", map[string]interface{}{
		"user_data":    userData(telegramID, fmt.Sprintf("user%d", telegramID)),
		"title":        title,
		"content":      "content of " + title,
		"category":     "продажа",
		"contact_info": "@contact",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["success"])
	// post_id rides at the top level of the envelope, next to success.
	require.Contains(t, resp, "post_id")
	return resp["post_id"].(string)
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)
	w, resp := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestCreatePost(t *testing.T) {
	router, db := setupRouter(t)

	postID := createPostViaAPI(t, router, 100, "Продам велосипед")
	assert.NotEmpty(t, postID)

	// Identity upsert created the author row.
	var user models.User
	require.NoError(t, db.Where("telegram_id = ?", 100).First(&user).Error)

	// The new post is immediately retrievable.
	w, resp := doJSON(t, router, http.MethodGet, "/api/post/"+postID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	post := resp["post"].(map[string]interface{})
	assert.Equal(t, "Продам велосипед", post["title"])
	assert.Equal(t, "Продажа", post["category_display"])
	assert.Equal(t, "user100", post["author"])
	assert.Equal(t, "user100", post["author_name"])
}

func TestCreatePostValidation(t *testing.T) {
	router, _ := setupRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/create", map[string]interface{}{
		"user_data":    userData(100, "alice"),
		"title":        "   ",
		"content":      "c",
		"category":     "продажа",
		"contact_info": "@x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["error"])

	// Missing identity is a validation failure, not a crash.
	w, resp = doJSON(t, router, http.MethodPost, "/create", map[string]interface{}{
		"title": "t", "content": "c", "category": "продажа", "contact_info": "@x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestUpdatePostByNonOwner(t *testing.T) {
	router, _ := setupRouter(t)
	postID := createPostViaAPI(t, router, 100, "title")

	w, resp := doJSON(t, router, http.MethodPut, "/api/post/"+postID, map[string]interface{}{
		"user_data": userData(200, "stranger"),
		"title":     "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, resp["success"])

	// Unchanged.
	_, getResp := doJSON(t, router, http.MethodGet, "/api/post/"+postID, nil)
	post := getResp["post"].(map[string]interface{})
	assert.Equal(t, "title", post["title"])
}

func TestUpdateAndDeletePostByOwner(t *testing.T) {
	router, _ := setupRouter(t)
	postID := createPostViaAPI(t, router, 100, "title")

	w, resp := doJSON(t, router, http.MethodPut, "/api/post/"+postID, map[string]interface{}{
		"user_data": userData(100, "user100"),
		"title":     "updated title",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	w, resp = doJSON(t, router, http.MethodDelete, "/api/post/"+postID+"?"+userDataQuery(100, "user100"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	w, _ = doJSON(t, router, http.MethodGet, "/api/post/"+postID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostsPaginationMetadata(t *testing.T) {
	router, _ := setupRouter(t)
	for i := 0; i < 25; i++ {
		createPostViaAPI(t, router, 100, fmt.Sprintf("post %02d", i))
	}

	w, resp := doJSON(t, router, http.MethodGet, "/api/posts?page=2&per_page=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["posts"], 5)
	assert.Equal(t, false, resp["has_next"])
	assert.Equal(t, true, resp["has_prev"])
	assert.Equal(t, float64(2), resp["page"])
	assert.Equal(t, float64(2), resp["pages"])
	assert.Equal(t, float64(25), resp["total"])
}

func TestCategories(t *testing.T) {
	router, _ := setupRouter(t)

	w, resp := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := resp["categories"].([]interface{})
	require.Len(t, categories, 6)
	first := categories[0].(map[string]interface{})
	assert.Equal(t, "услуги", first["value"])
	assert.Equal(t, "Услуги", first["label"])
}

func TestReviewFlow(t *testing.T) {
	router, db := setupRouter(t)
	postID := createPostViaAPI(t, router, 100, "item")

	// Self-review is rejected.
	w, resp := doJSON(t, router, http.MethodPost, "/api/review", map[string]interface{}{
		"user_data": userData(100, "user100"),
		"post_id":   postID,
		"rating":    5,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, resp["success"])

	// Buyer submits; review goes to moderation.
	w, resp = doJSON(t, router, http.MethodPost, "/api/review", map[string]interface{}{
		"user_data": userData(200, "buyer"),
		"post_id":   postID,
		"rating":    5,
		"comment":   "отлично",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["success"])
	// review_id and needs_moderation ride at the top level of the envelope.
	assert.Equal(t, true, resp["needs_moderation"])
	require.Contains(t, resp, "review_id")
	reviewID := int(resp["review_id"].(float64))

	// Duplicate from the same buyer fails.
	w, _ = doJSON(t, router, http.MethodPost, "/api/review", map[string]interface{}{
		"user_data": userData(200, "buyer"),
		"post_id":   postID,
		"rating":    4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Not visible while pending.
	_, resp = doJSON(t, router, http.MethodGet, "/api/reviews/approved?post_id="+postID, nil)
	assert.Empty(t, resp["reviews"])

	// Non-admin cannot moderate.
	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/review/%d/moderate", reviewID), map[string]interface{}{
		"user_data": userData(200, "buyer"),
		"action":    "approve",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Promote a user to admin and approve.
	adminData := userData(300, "admin")
	doJSON(t, router, http.MethodGet, "/api/posts?"+userDataQuery(300, "admin"), nil) // resolve identity
	require.NoError(t, db.Model(&models.User{}).Where("telegram_id = ?", 300).Update("is_admin", true).Error)

	w, resp = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/review/%d/moderate", reviewID), map[string]interface{}{
		"user_data": adminData,
		"action":    "approve",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	// Approved review is now public.
	_, resp = doJSON(t, router, http.MethodGet, "/api/reviews/approved?post_id="+postID, nil)
	reviews := resp["reviews"].([]interface{})
	require.Len(t, reviews, 1)
	review := reviews[0].(map[string]interface{})
	assert.Equal(t, float64(5), review["rating"])
	assert.Equal(t, "отлично", review["comment"])

	// Unfiltered request lists all approved reviews.
	_, resp = doJSON(t, router, http.MethodGet, "/api/reviews/approved", nil)
	assert.Len(t, resp["reviews"], 1)

	// Seller aggregate reflects the approved review.
	_, resp = doJSON(t, router, http.MethodGet, "/api/user/100/reviews", nil)
	assert.Equal(t, float64(5), resp["average_rating"])
	assert.Equal(t, float64(1), resp["total_reviews"])
}

func TestReviewInvalidRating(t *testing.T) {
	router, _ := setupRouter(t)
	postID := createPostViaAPI(t, router, 100, "item")

	w, resp := doJSON(t, router, http.MethodPost, "/api/review", map[string]interface{}{
		"user_data": userData(200, "buyer"),
		"post_id":   postID,
		"rating":    6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestUserPostsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)
	createPostViaAPI(t, router, 100, "first")
	createPostViaAPI(t, router, 100, "second")

	_, resp := doJSON(t, router, http.MethodGet, "/api/user/100/posts", nil)
	assert.Len(t, resp["posts"], 2)

	// Unknown user yields an empty list, not an error.
	w, resp := doJSON(t, router, http.MethodGet, "/api/user/999/posts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["posts"])
}
