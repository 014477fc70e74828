package auth

import "github.com/user/lojinha-go/upstream"

// directoryUser is a user record as persisted in the mock directory. The hash
// never leaves this package; responses carry the embedded User only.
type directoryUser struct {
	upstream.User
	PasswordHash string `json:"password_hash"`
}

// avatarBlob is a mock-uploaded avatar as persisted in the store, one entry
// per generated filename.
type avatarBlob struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// session is the authenticated state held in memory and mirrored to the store.
type session struct {
	Token string
	User  upstream.User
}
