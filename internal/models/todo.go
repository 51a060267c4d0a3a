package models

import "time"

// TodoStatus はTodoの進行状態を表します。
type TodoStatus string

const (
	StatusTodo       TodoStatus = "TODO"
	StatusInProgress TodoStatus = "IN_PROGRESS"
	StatusCompleted  TodoStatus = "COMPLETED"
)

// ValidTodoStatuses は有効なステータスの一覧です (バリデーションエラーのレスポンスにも使用)。
var ValidTodoStatuses = []TodoStatus{StatusTodo, StatusInProgress, StatusCompleted}

// IsValid はステータスが有効な値かどうかを返します。
func (s TodoStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Todo はToDoタスクのデータベース構造体を表します。
type Todo struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"` // 所有者のユーザーID (必須)
	Title       string     `json:"title"`
	Description *string    `json:"description"` // 任意項目。未設定の場合はnull
	Status      TodoStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TodoCreateRequest はTodo作成リクエストの構造体です。
type TodoCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// TodoUpdateRequest はTodo更新リクエストの構造体です。
// ポインタで「キーが送られていない」と「空文字で送られた」を区別します。
// nilのフィールドは変更しません。
type TodoUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TodoStatusUpdateRequest はステータス更新リクエストの構造体です。
type TodoStatusUpdateRequest struct {
	Status string `json:"status"`
}
