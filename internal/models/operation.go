package models

import "fmt"

// OpKind перечисляет виды локальных мутаций
type OpKind int

const (
	OpCreate OpKind = iota
	OpUpdate
	OpDelete
	OpToggle
)

// String returns a human-readable kind name.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Valid reports whether the kind is one of the known mutation kinds.
func (k OpKind) Valid() bool {
	return k >= OpCreate && k <= OpToggle
}

// Patch is the operation-specific partial item carried by an Operation.
// Nil fields are left untouched when the patch is applied.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// ApplyTo накладывает непустые поля патча на запись
func (p Patch) ApplyTo(item *Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
}

// Operation представляет одну мутацию, ожидающую подтверждения сервером.
// Создается при вызове submit, мутируется только инкрементом Attempts при
// неудачной отправке, удаляется при подтверждении или вытеснении reconciler-ом.
type Operation struct {
	OpID      string `json:"op_id"` // locally unique, used for idempotent replay
	Kind      OpKind `json:"kind"`
	TargetID  int64  `json:"target_id"`
	Payload   Patch  `json:"payload"`
	CreatedAt int64  `json:"created_at"` // milliseconds, queue order key
	Attempts  int    `json:"attempts"`
}

// Validate проверяет форму операции. Ошибка здесь — ошибка программиста,
// единственный случай когда submit возвращает ошибку синхронно.
func (op *Operation) Validate() error {
	if !op.Kind.Valid() {
		return fmt.Errorf("unknown operation kind %d", int(op.Kind))
	}
	if op.TargetID == 0 {
		return fmt.Errorf("operation has no target id")
	}
	if op.Kind == OpCreate && (op.Payload.Title == nil || *op.Payload.Title == "") {
		return fmt.Errorf("create operation requires a title")
	}
	return nil
}
