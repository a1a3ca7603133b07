package domain

// SendMessageCommand carries the handles and payload of a send intent.
type SendMessageCommand struct {
	From    string
	To      string
	Content string
	Type    string
}

// RegisterCommand carries a directory registration.
type RegisterCommand struct {
	Handle   string `validate:"required,max=32,excludesall=/"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
}
