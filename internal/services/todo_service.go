package services

import (
	"errors"

	"go-todo-api/internal/models"
	"go-todo-api/internal/repositories"
)

// ErrInvalidStatus は不正なステータスが指定された場合のエラーです。
var ErrInvalidStatus = errors.New("invalid todo status")

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は認証済みユーザーのIDでスコープされます。
type TodoService struct {
	todoRepo *repositories.TodoRepository
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// CreateTodo は新しいTodoを作成します。ステータスはTODOで始まります。
func (s *TodoService) CreateTodo(req models.TodoCreateRequest, userID string) (*models.Todo, error) {
	newTodo := &models.Todo{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusTodo,
	}
	return s.todoRepo.Create(newTodo)
}

// GetTodos はユーザーが所有するTodoを新しい順に取得します。
func (s *TodoService) GetTodos(userID string) ([]*models.Todo, error) {
	return s.todoRepo.FindByUserID(userID)
}

// GetTodoByID は指定IDのTodoを取得します。
// 他人のTodoは存在しないものとして repositories.ErrTodoNotFound を返します。
func (s *TodoService) GetTodoByID(id, userID string) (*models.Todo, error) {
	return s.todoRepo.FindByIDAndUserID(id, userID)
}

// UpdateTodo はTodoのタイトルと説明を部分更新します。
// nilのフィールドは変更しません。空文字のタイトルも変更扱いにしません。
// 空文字の説明は「クリアされた」とみなしNULLにします。
func (s *TodoService) UpdateTodo(id, userID string, req models.TodoUpdateRequest) (*models.Todo, error) {
	existingTodo, err := s.todoRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != "" {
		existingTodo.Title = *req.Title
	}
	if req.Description != nil {
		if *req.Description == "" {
			existingTodo.Description = nil
		} else {
			existingTodo.Description = req.Description
		}
	}

	return s.todoRepo.Update(existingTodo)
}

// UpdateTodoStatus はTodoのステータスを更新します。
// ステータス間の遷移に制限はありません (どの状態からどの状態へも変更可)。
func (s *TodoService) UpdateTodoStatus(id, userID, status string) (*models.Todo, error) {
	newStatus := models.TodoStatus(status)
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	existingTodo, err := s.todoRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}

	existingTodo.Status = newStatus
	return s.todoRepo.Update(existingTodo)
}

// DeleteTodo はTodoを削除します。所有者以外は repositories.ErrTodoNotFound になります。
func (s *TodoService) DeleteTodo(id, userID string) error {
	return s.todoRepo.Delete(id, userID)
}
