package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-api/internal/models"
	"go-todo-api/internal/repositories"
	"go-todo-api/testutil"
)

func TestCreateTodo_Success(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "alice", "password123")
	require.NoError(t, err)

	payload := map[string]string{
		"title":       "Test Todo",
		"description": "A test description",
	}
	jsonValue, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", "/todos", bytes.NewBuffer(jsonValue))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP Status Code 201 Created")
	var createdTodo models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &createdTodo)
	assert.NoError(t, err, "Response should be a valid JSON todo object")

	assert.NotEmpty(t, createdTodo.ID, "Expected a non-empty Todo ID")
	assert.Equal(t, "Test Todo", createdTodo.Title)
	require.NotNil(t, createdTodo.Description)
	assert.Equal(t, "A test description", *createdTodo.Description)
	assert.Equal(t, models.StatusTodo, createdTodo.Status, "New todos must start in TODO status")
	assert.NotEmpty(t, createdTodo.UserID)
	require.WithinDuration(t, time.Now(), createdTodo.CreatedAt, 5*time.Second)

	// データベースに保存されていることを確認
	var dbTitle, dbStatus string
	err = db.QueryRow("SELECT title, status FROM todos WHERE id = ?", createdTodo.ID).Scan(&dbTitle, &dbStatus)
	require.NoError(t, err)
	require.Equal(t, "Test Todo", dbTitle)
	require.Equal(t, "TODO", dbStatus)
}

func TestCreateTodo_WithoutDescription(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "alice", "password123")
	require.NoError(t, err)

	payload := `{"title": "No Description Todo"}`
	req, _ := http.NewRequest("POST", "/todos", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var createdTodo models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &createdTodo)
	require.NoError(t, err)
	require.Nil(t, createdTodo.Description, "Omitted description should be null")
}

func TestCreateTodo_EmptyTitle(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "alice", "password123")
	require.NoError(t, err)

	payload := `{"title": "", "description": "no title here"}`
	req, _ := http.NewRequest("POST", "/todos", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "Expected HTTP Status Code 400 Bad Request")
	var response map[string]string
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], "Title is required")

	// レコードが作成されていないことを確認
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM todos").Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count, "No record must be persisted for an empty title")
}

func TestGetTodos_OwnershipAndOrdering(t *testing.T) {
	db, router, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenAlice, err := testutil.LoginAndGetToken(t, router, "alice", "password123")
	require.NoError(t, err)
	tokenBob, err := testutil.LoginAndGetToken(t, router, "bob", "password456")
	require.NoError(t, err)

	first := testutil.CreateTestTodo(t, router, tokenAlice, "First Todo", "")
	second := testutil.CreateTestTodo(t, router, tokenAlice, "Second Todo", "")
	_ = testutil.CreateTestTodo(t, router, tokenBob, "Bob's Todo", "")

	// --- Test Case 1: 新しい順で自分のTODOだけが返ること ---
	t.Run("User gets own todos newest first", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/todos", nil)
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)

		var todos []*models.Todo
		err := json.Unmarshal(resp.Body.Bytes(), &todos)
		require.NoError(t, err)
		require.Len(t, todos, 2) // 自分のTODOが2つ (Bobの分は含まれない)
		require.Equal(t, second.ID, todos[0].ID, "Newest todo must come first")
		require.Equal(t, first.ID, todos[1].ID)
	})

	// --- Test Case 2: TODOを持たないユーザーには空配列が返ること ---
	t.Run("User with no todos gets empty list", func(t *testing.T) {
		// 新しいユーザーを登録
		registerPayload := `{"username": "carol", "password": "password789"}`
		req, _ := http.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(registerPayload))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusCreated, resp.Code)

		var auth models.AuthResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))

		req, _ = http.NewRequest(http.MethodGet, "/todos", nil)
		req.Header.Set("Authorization", "Bearer "+auth.Token)
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, "[]", strings.TrimSpace(resp.Body.String()), "Expected an empty JSON array, not null")
	})
}

func TestGetTodoByID_Ownership(t *testing.T) {
	db, router, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenAlice, err := testutil.LoginAndGetToken(t, router, "alice", "password123")
	require.NoError(t, err)
	tokenBob, err := testutil.LoginAndGetToken(t, router, "bob", "password456")
	require.NoError(t, err)

	todoAlice := testutil.CreateTestTodo(t, router, tokenAlice, "Alice's Todo", "private note")

	// --- Test Case 1: 自分のTODOは取得できること ---
	t.Run("User can get their own todo by ID", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/todos/%s", todoAlice.ID), nil)
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var fetchedTodo models.Todo
		err := json.Unmarshal(resp.Body.Bytes(), &fetchedTodo)
		require.NoError(t, err)
		require.Equal(t, todoAlice.ID, fetchedTodo.ID)
		require.Equal(t, "Alice's Todo", fetchedTodo.Title)
		require.NotNil(t, fetchedTodo.Description)
		require.Equal(t, "private note", *fetchedTodo.Description)
	})

	// --- Test Case 2: 他人のTODOは404になること (403ではなく、存在も漏らさない) ---
	t.Run("Another user's todo returns 404", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/todos/%s", todoAlice.ID), nil)
		req.Header.Set("Authorization", "Bearer "+tokenBob)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNotFound, resp.Code)
		var response map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
		require.Equal(t, "Todo not found", response["error"])
	})

	// --- Test Case 3: 存在しないIDも404になること ---
	t.Run("Nonexistent ID returns 404", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/todos/00000000-0000-0000-0000-000000000000", nil)
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestUpdateTodo_PartialUpdate(t *testing.T) {
	db, router, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenAlice, err := testutil.LoginAndGetToken(t, router, "alice", "password123")
	require.NoError(t, err)
	tokenBob, err := testutil.LoginAndGetToken(t, router, "bob", "password456")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenAlice, "Original Title", "original description")

	// --- Test Case 1: タイトルだけ更新しても説明は変わらないこと ---
	t.Run("Updating title only leaves description unchanged", func(t *testing.T) {
		updatePayload := `{"title": "Updated Title"}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s", created.ID), strings.NewReader(updatePayload))
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var updatedTodo models.Todo
		err := json.Unmarshal(resp.Body.Bytes(), &updatedTodo)
		require.NoError(t, err)
		require.Equal(t, "Updated Title", updatedTodo.Title)
		require.NotNil(t, updatedTodo.Description)
		require.Equal(t, "original description", *updatedTodo.Description)
	})

	// --- Test Case 2: 空文字の説明で送るとクリアされること ---
	t.Run("Empty description clears the field", func(t *testing.T) {
		updatePayload := `{"description": ""}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s", created.ID), strings.NewReader(updatePayload))
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var updatedTodo models.Todo
		err := json.Unmarshal(resp.Body.Bytes(), &updatedTodo)
		require.NoError(t, err)
		require.Nil(t, updatedTodo.Description)
		require.Equal(t, "Updated Title", updatedTodo.Title, "Absent title must not change")

		// DB上もNULLになっていること
		var dbDesc sql.NullString
		err = db.QueryRow("SELECT description FROM todos WHERE id = ?", created.ID).Scan(&dbDesc)
		require.NoError(t, err)
		require.False(t, dbDesc.Valid)
	})

	// --- Test Case 3: 他人のTODOは更新できないこと ---
	t.Run("User cannot update another user's todo", func(t *testing.T) {
		updatePayload := `{"title": "Hijacked"}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s", created.ID), strings.NewReader(updatePayload))
		req.Header.Set("Authorization", "Bearer "+tokenBob)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestUpdateTodoStatus(t *testing.T) {
	db, router, todoRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenAlice, err := testutil.LoginAndGetToken(t, router, "alice", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenAlice, "Status Todo", "")

	// --- Test Case 1: 有効なステータスへ更新できること ---
	t.Run("Valid status update", func(t *testing.T) {
		for _, status := range []string{"IN_PROGRESS", "COMPLETED", "TODO"} {
			payload := fmt.Sprintf(`{"status": %q}`, status)
			req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s/status", created.ID), strings.NewReader(payload))
			req.Header.Set("Authorization", "Bearer "+tokenAlice)
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			require.Equal(t, http.StatusOK, resp.Code)
			var updatedTodo models.Todo
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updatedTodo))
			require.Equal(t, models.TodoStatus(status), updatedTodo.Status)
		}
	})

	// --- Test Case 2: 不正なステータスは400になり、保存されている値は変わらないこと ---
	t.Run("Invalid status is rejected", func(t *testing.T) {
		payload := `{"status": "DONE"}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s/status", created.ID), strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)

		var response struct {
			Error         string   `json:"error"`
			ValidStatuses []string `json:"validStatuses"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
		require.Equal(t, "Valid status is required", response.Error)
		require.ElementsMatch(t, []string{"TODO", "IN_PROGRESS", "COMPLETED"}, response.ValidStatuses)

		// 直前のループで最後に設定したTODOのままであること
		stored, err := todoRepo.FindByIDAndUserID(created.ID, created.UserID)
		require.NoError(t, err)
		require.Equal(t, models.StatusTodo, stored.Status)
	})

	// --- Test Case 3: ステータスが無いリクエストも400になること ---
	t.Run("Missing status is rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%s/status", created.ID), strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestDeleteTodo(t *testing.T) {
	db, router, todoRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenAlice, err := testutil.LoginAndGetToken(t, router, "alice", "password123")
	require.NoError(t, err)
	tokenBob, err := testutil.LoginAndGetToken(t, router, "bob", "password456")
	require.NoError(t, err)

	todoAlice := testutil.CreateTestTodo(t, router, tokenAlice, "Todo to Delete", "")

	// --- Test Case 1: 他人のTODOは削除できないこと ---
	t.Run("User cannot delete another user's todo", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/todos/%s", todoAlice.ID), nil)
		req.Header.Set("Authorization", "Bearer "+tokenBob)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNotFound, resp.Code)
		// 削除されていないことを確認
		_, err := todoRepo.FindByIDAndUserID(todoAlice.ID, todoAlice.UserID)
		require.NoError(t, err)
	})

	// --- Test Case 2: 自分のTODOは削除でき、その後のGETは404になること ---
	t.Run("User can delete their own todo", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/todos/%s", todoAlice.ID), nil)
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNoContent, resp.Code)
		require.Empty(t, resp.Body.String(), "204 response must have no body")

		req, _ = http.NewRequest(http.MethodGet, fmt.Sprintf("/todos/%s", todoAlice.ID), nil)
		req.Header.Set("Authorization", "Bearer "+tokenAlice)
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNotFound, resp.Code)
		_, err := todoRepo.FindByIDAndUserID(todoAlice.ID, todoAlice.UserID)
		require.ErrorIs(t, err, repositories.ErrTodoNotFound)
	})
}

// TestTodoLifecycle_TwoUsers は登録からTODO作成・分離確認までの一連の流れを検証します。
func TestTodoLifecycle_TwoUsers(t *testing.T) {
	db, router, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	register := func(username, password string) models.AuthResponse {
		payload := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
		req, _ := http.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusCreated, resp.Code)

		var auth models.AuthResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))
		return auth
	}

	authDave := register("dave", "pw1")
	created := testutil.CreateTestTodo(t, router, authDave.Token, "buy milk", "")
	require.Equal(t, models.StatusTodo, created.Status)

	req, _ := http.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "Bearer "+authDave.Token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var daveTodos []*models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &daveTodos))
	require.Len(t, daveTodos, 1)
	require.Equal(t, "buy milk", daveTodos[0].Title)

	authEve := register("eve", "pw2")
	req, _ = http.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "Bearer "+authEve.Token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var eveTodos []*models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &eveTodos))
	require.Empty(t, eveTodos)
}
