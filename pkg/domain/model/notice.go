package model

// NoticeKind selects how a notice is shown
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message shown to the user once, usually as a toast
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// SuccessNotice builds a success notice
func SuccessNotice(title, message string) *Notice {
	return &Notice{Kind: NoticeSuccess, Title: title, Message: message}
}

// ErrorNotice builds an error notice
func ErrorNotice(title, message string) *Notice {
	return &Notice{Kind: NoticeError, Title: title, Message: message}
}
