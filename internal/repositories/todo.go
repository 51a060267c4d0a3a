package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"go-todo-api/internal/models"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
// 他人のTODOへのアクセスも同じエラーになります (存在を漏らさないため)。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はtodosテーブルの操作を行うための構造体です。
type TodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

// Create は新しいTodoタスクをデータベースに挿入します。
func (r *TodoRepository) Create(t *models.Todo) (*models.Todo, error) {
	t.ID = uuid.NewString()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := "INSERT INTO todos (id, user_id, title, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.DB.Exec(query, t.ID, t.UserID, t.Title, nullableString(t.Description), string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	return t, nil
}

// FindByUserID は指定ユーザーが所有するTodoを作成日時の降順で取得します。
func (r *TodoRepository) FindByUserID(userID string) ([]*models.Todo, error) {
	query := "SELECT id, user_id, title, description, status, created_at, updated_at FROM todos WHERE user_id = ? ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			log.Printf("Failed to scan todo: %v", err)
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// FindByIDAndUserID は (id, user_id) の組でTodoを取得します。
// 存在チェックと所有者チェックを1回のルックアップにまとめています。
func (r *TodoRepository) FindByIDAndUserID(id, userID string) (*models.Todo, error) {
	query := "SELECT id, user_id, title, description, status, created_at, updated_at FROM todos WHERE id = ? AND user_id = ?"

	var t models.Todo
	var desc sql.NullString
	var status string
	err := r.DB.QueryRow(query, id, userID).Scan(&t.ID, &t.UserID, &t.Title, &desc, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.Status = models.TodoStatus(status)

	return &t, nil
}

// Update はTodoのタイトル・説明・ステータスを保存します。
// 所有者チェックはサービス層でFindByIDAndUserIDにより行われている前提です。
func (r *TodoRepository) Update(t *models.Todo) (*models.Todo, error) {
	t.UpdatedAt = time.Now()

	query := "UPDATE todos SET title = ?, description = ?, status = ?, updated_at = ? WHERE id = ?"
	_, err := r.DB.Exec(query, t.Title, nullableString(t.Description), string(t.Status), t.UpdatedAt, t.ID)
	if err != nil {
		log.Printf("Failed to update todo: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	return t, nil
}

// Delete は指定されたIDのTodoタスクを削除します。
func (r *TodoRepository) Delete(id, userID string) error {
	query := "DELETE FROM todos WHERE id = ? AND user_id = ?"

	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		log.Printf("Failed to delete todo: %v", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	// 削除された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// scanTodo はrows.Scan用の共通処理です。
func scanTodo(rows *sql.Rows) (*models.Todo, error) {
	var t models.Todo
	var desc sql.NullString
	var status string
	if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &desc, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.Status = models.TodoStatus(status)
	return &t, nil
}

// nullableString は *string をNULL許容カラムの値に変換します。
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
