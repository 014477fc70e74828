// Package auth implements registration, login and the session, with two
// execution paths: the backend's auth endpoints when it is reachable and a
// local bcrypt-hashed user directory when it is not. Both paths issue real
// signed tokens, so the rest of the program never needs to know which one ran.
package auth

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/config"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
	"github.com/user/lojinha-go/upstream"
)

// MaxAvatarSize is the upload ceiling for avatar images.
const MaxAvatarSize = 5 << 20

// directorySeededAt timestamps the built-in admin record.
const directorySeededAt = "2024-01-15T10:30:00Z"

// Claims is the token payload, identical for backend and locally issued
// tokens.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service owns authentication state: the mock user directory, the current
// session and token issuance.
type Service struct {
	client *upstream.Client
	store  *localstore.Store
	bus    *events.Broadcaster
	cfg    *config.AuthConfig
	logger *zap.Logger

	mu        sync.RWMutex
	session   *session
	listeners []func(SessionSnapshot)
}

// NewService creates the auth service, seeds the mock directory with the
// built-in admin account and restores any persisted session whose token is
// still valid.
func NewService(client *upstream.Client, store *localstore.Store, bus *events.Broadcaster, cfg *config.AuthConfig, logger *zap.Logger) (*Service, error) {
	s := &Service{
		client: client,
		store:  store,
		bus:    bus,
		cfg:    cfg,
		logger: logger,
	}
	if err := s.ensureDirectory(); err != nil {
		return nil, err
	}
	s.restoreSession()
	return s, nil
}

// OnSessionChange registers a listener invoked synchronously on every session
// change. Register listeners before serving traffic; the slice is not guarded
// after that.
func (s *Service) OnSessionChange(fn func(SessionSnapshot)) {
	s.listeners = append(s.listeners, fn)
}

// Session returns the current authentication state.
func (s *Service) Session() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() SessionSnapshot {
	if s.session == nil {
		return SessionSnapshot{}
	}
	user := s.session.User
	return SessionSnapshot{
		IsAuthenticated: true,
		User:            &user,
		Token:           s.session.Token,
		TokenType:       "bearer",
	}
}

// Register creates an account, preferring the backend and falling back to the
// local directory when it is unreachable. Success establishes a session.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (SessionSnapshot, error) {
	payload := upstream.RegisterPayload{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Phone:    req.Phone,
		Address:  req.Address,
	}

	resp, err := s.client.Register(ctx, payload)
	switch {
	case err == nil && resp.User != nil:
		s.establish(resp.AccessToken, *resp.User)
	case err == nil:
		return SessionSnapshot{}, apperror.NewUpstreamError("resposta de registro sem usuário", nil)
	case apperror.IsUpstreamError(err):
		s.logger.Warn("backend register unavailable, using local directory", zap.Error(err))
		user, mockErr := s.mockRegister(payload)
		if mockErr != nil {
			return SessionSnapshot{}, mockErr
		}
		token, tokenErr := s.issueToken(user)
		if tokenErr != nil {
			return SessionSnapshot{}, tokenErr
		}
		s.establish(token, user)
	default:
		return SessionSnapshot{}, err
	}

	s.bus.Publish(events.NewEvent(events.TypeAuth, "Conta criada com sucesso!"))
	return s.Session(), nil
}

// Login authenticates against the backend when reachable, otherwise against
// the local directory. Success establishes a session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (SessionSnapshot, error) {
	payload := upstream.LoginPayload{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
	}

	resp, err := s.client.Login(ctx, payload)
	switch {
	case err == nil && resp.User != nil:
		s.establish(resp.AccessToken, *resp.User)
	case err == nil:
		return SessionSnapshot{}, apperror.NewUpstreamError("resposta de login sem usuário", nil)
	case apperror.IsUpstreamError(err):
		s.logger.Warn("backend login unavailable, using local directory", zap.Error(err))
		user, mockErr := s.mockLogin(payload)
		if mockErr != nil {
			return SessionSnapshot{}, mockErr
		}
		token, tokenErr := s.issueToken(user)
		if tokenErr != nil {
			return SessionSnapshot{}, tokenErr
		}
		s.establish(token, user)
	default:
		return SessionSnapshot{}, err
	}

	snap := s.Session()
	s.bus.Publish(events.NewEvent(events.TypeAuth, fmt.Sprintf("Bem-vindo, %s!", snap.User.Name)))
	return snap, nil
}

// Logout drops the session from memory and from the store.
func (s *Service) Logout() {
	s.mu.Lock()
	s.session = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.Delete(localstore.KeyAuthToken); err != nil {
		s.logger.Warn("failed to clear stored token", zap.Error(err))
	}
	if err := s.store.Delete(localstore.KeyAuthUser); err != nil {
		s.logger.Warn("failed to clear stored user", zap.Error(err))
	}

	s.notify(snap)
	s.bus.Publish(events.NewEvent(events.TypeAuth, "Você saiu da sua conta"))
}

// Profile returns the authenticated user's profile, backend-first. A 401 from
// the backend means the token is no longer honored there, so the session is
// dropped.
func (s *Service) Profile(ctx context.Context, claims *Claims) (*upstream.User, error) {
	token, _ := TokenFromContext(ctx)
	user, err := s.client.GetProfile(ctx, token)
	if err == nil {
		return user, nil
	}
	if apperror.IsAuthError(err) {
		s.Logout()
		return nil, err
	}
	if !apperror.IsUpstreamError(err) {
		return nil, err
	}

	record, found, dirErr := s.lookupByID(claims.UserID)
	if dirErr != nil {
		return nil, dirErr
	}
	if found {
		u := record.User
		return &u, nil
	}

	// Backend-registered users are not in the local directory; serve the
	// session snapshot instead.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session != nil && s.session.User.ID == claims.UserID {
		u := s.session.User
		return &u, nil
	}
	return nil, apperror.NewNotFoundError("Usuário não encontrado", nil)
}

// UpdateProfile applies a partial profile update, backend-first. The session
// user is refreshed with the result.
func (s *Service) UpdateProfile(ctx context.Context, claims *Claims, req UpdateProfileRequest) (*upstream.User, error) {
	payload := upstream.ProfileUpdatePayload{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}

	token, _ := TokenFromContext(ctx)
	user, err := s.client.UpdateProfile(ctx, token, payload)
	if err != nil {
		if !apperror.IsUpstreamError(err) {
			return nil, err
		}
		s.logger.Warn("backend profile update unavailable, using local directory", zap.Error(err))
		user, err = s.mockUpdateProfile(claims.UserID, payload)
		if err != nil {
			return nil, err
		}
	}

	s.refreshSessionUser(*user)
	s.bus.Publish(events.NewEvent(events.TypeAuth, "Perfil atualizado com sucesso!"))
	return user, nil
}

// UploadAvatar stores an avatar image for the authenticated user. The mock
// path keeps the blob in the store under a generated filename; validation is
// identical either way.
func (s *Service) UploadAvatar(ctx context.Context, claims *Claims, filename, contentType string, data []byte) (*upstream.AvatarResponse, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.NewValidationError("Por favor, selecione uma imagem válida", nil)
	}
	if len(data) > MaxAvatarSize {
		return nil, apperror.NewValidationError("A imagem deve ter no máximo 5MB", nil)
	}

	token, _ := TokenFromContext(ctx)
	resp, err := s.client.UploadAvatar(ctx, token, filename, contentType, data)
	if err != nil {
		if !apperror.IsUpstreamError(err) {
			return nil, err
		}
		s.logger.Warn("backend avatar upload unavailable, storing locally", zap.Error(err))
		resp, err = s.mockUploadAvatar(claims.UserID, filename, contentType, data)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	if s.session != nil {
		name := resp.AvatarFilename
		s.session.User.AvatarFilename = &name
		user := s.session.User
		s.mu.Unlock()
		s.refreshSessionUser(user)
	} else {
		s.mu.Unlock()
	}

	s.bus.Publish(events.NewEvent(events.TypeAuth, "Avatar atualizado com sucesso!"))
	return resp, nil
}

// Avatar returns a mock-stored avatar blob by filename.
func (s *Service) Avatar(filename string) (data []byte, contentType string, err error) {
	var blob avatarBlob
	if err := s.store.GetJSON(localstore.AvatarKeyPrefix+filename, &blob); err != nil {
		if errors.Is(err, localstore.ErrKeyNotFound) {
			return nil, "", apperror.NewNotFoundError("avatar não encontrado", nil)
		}
		return nil, "", apperror.NewStorageError("failed to load avatar", err)
	}
	return blob.Data, blob.ContentType, nil
}

// VerifyToken parses and validates a bearer token issued by either path.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, apperror.NewAuthError(fmt.Sprintf("token inválido: %v", err), err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, apperror.NewAuthError("token inválido", nil)
	}
	return claims, nil
}

// issueToken signs a token carrying the user's identity claims.
func (s *Service) issueToken(user upstream.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenDuration)),
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", apperror.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// establish replaces the session, mirrors it to the store and notifies
// listeners.
func (s *Service) establish(token string, user upstream.User) {
	s.mu.Lock()
	s.session = &session{Token: token, User: user}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.Put(localstore.KeyAuthToken, token); err != nil {
		s.logger.Warn("failed to persist token", zap.Error(err))
	}
	if err := s.store.PutJSON(localstore.KeyAuthUser, user); err != nil {
		s.logger.Warn("failed to persist session user", zap.Error(err))
	}

	s.notify(snap)
}

// refreshSessionUser updates the session's user in place, keeping the token.
func (s *Service) refreshSessionUser(user upstream.User) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	s.session.User = user
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.PutJSON(localstore.KeyAuthUser, user); err != nil {
		s.logger.Warn("failed to persist session user", zap.Error(err))
	}
	s.notify(snap)
}

func (s *Service) notify(snap SessionSnapshot) {
	for _, fn := range s.listeners {
		fn(snap)
	}
}

// restoreSession loads a persisted session, discarding it when the stored
// token no longer validates.
func (s *Service) restoreSession() {
	token, err := s.store.Get(localstore.KeyAuthToken)
	if err != nil {
		return
	}
	var user upstream.User
	if err := s.store.GetJSON(localstore.KeyAuthUser, &user); err != nil {
		return
	}
	if _, err := s.VerifyToken(token); err != nil {
		s.logger.Info("discarding expired stored session")
		if delErr := s.store.Delete(localstore.KeyAuthToken); delErr != nil {
			s.logger.Warn("failed to clear stored token", zap.Error(delErr))
		}
		if delErr := s.store.Delete(localstore.KeyAuthUser); delErr != nil {
			s.logger.Warn("failed to clear stored user", zap.Error(delErr))
		}
		return
	}
	s.session = &session{Token: token, User: user}
	s.logger.Info("restored persisted session", zap.String("email", user.Email))
}

// ensureDirectory seeds the mock user directory with the admin account on
// first run.
func (s *Service) ensureDirectory() error {
	var users []directoryUser
	err := s.store.GetJSON(localstore.KeyMockUsers, &users)
	if err == nil && len(users) > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, localstore.ErrKeyNotFound) {
		return apperror.NewStorageError("failed to load user directory", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("failed to hash seed password", err)
	}
	phone := "(11) 99999-9999"
	address := "Rua da Loja, 123 - Centro"
	users = []directoryUser{{
		User: upstream.User{
			ID:        1,
			Email:     "admin@loja.com",
			Name:      "Administrador",
			Phone:     &phone,
			Address:   &address,
			IsAdmin:   true,
			CreatedAt: directorySeededAt,
			UpdatedAt: directorySeededAt,
		},
		PasswordHash: string(hash),
	}}
	if err := s.store.PutJSON(localstore.KeyMockUsers, users); err != nil {
		return apperror.NewStorageError("failed to seed user directory", err)
	}
	s.logger.Info("seeded mock user directory", zap.Int("users", len(users)))
	return nil
}

func (s *Service) loadDirectory() ([]directoryUser, error) {
	var users []directoryUser
	if err := s.store.GetJSON(localstore.KeyMockUsers, &users); err != nil {
		if errors.Is(err, localstore.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, apperror.NewStorageError("failed to load user directory", err)
	}
	return users, nil
}

func (s *Service) saveDirectory(users []directoryUser) error {
	if err := s.store.PutJSON(localstore.KeyMockUsers, users); err != nil {
		return apperror.NewStorageError("failed to save user directory", err)
	}
	return nil
}

func (s *Service) lookupByID(id int64) (directoryUser, bool, error) {
	users, err := s.loadDirectory()
	if err != nil {
		return directoryUser{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return directoryUser{}, false, nil
}

func (s *Service) mockRegister(payload upstream.RegisterPayload) (upstream.User, error) {
	users, err := s.loadDirectory()
	if err != nil {
		return upstream.User{}, err
	}

	var maxID int64
	for _, u := range users {
		if normalizeEmail(u.Email) == payload.Email {
			return upstream.User{}, apperror.NewConflictError("E-mail já cadastrado", nil)
		}
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return upstream.User{}, apperror.NewInternalError("failed to hash password", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record := directoryUser{
		User: upstream.User{
			ID:        maxID + 1,
			Email:     payload.Email,
			Name:      payload.Name,
			Phone:     payload.Phone,
			Address:   payload.Address,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: string(hash),
	}
	users = append(users, record)
	if err := s.saveDirectory(users); err != nil {
		return upstream.User{}, err
	}
	return record.User, nil
}

func (s *Service) mockLogin(payload upstream.LoginPayload) (upstream.User, error) {
	users, err := s.loadDirectory()
	if err != nil {
		return upstream.User{}, err
	}
	for _, u := range users {
		if normalizeEmail(u.Email) != payload.Email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(payload.Password)) != nil {
			break
		}
		return u.User, nil
	}
	return upstream.User{}, apperror.NewAuthError("Email ou senha incorretos", nil)
}

func (s *Service) mockUpdateProfile(userID int64, payload upstream.ProfileUpdatePayload) (*upstream.User, error) {
	users, err := s.loadDirectory()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if payload.Name != nil {
			users[i].Name = *payload.Name
		}
		if payload.Phone != nil {
			users[i].Phone = payload.Phone
		}
		if payload.Address != nil {
			users[i].Address = payload.Address
		}
		users[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if err := s.saveDirectory(users); err != nil {
			return nil, err
		}
		u := users[i].User
		return &u, nil
	}
	return nil, apperror.NewNotFoundError("Usuário não encontrado", nil)
}

func (s *Service) mockUploadAvatar(userID int64, original, contentType string, data []byte) (*upstream.AvatarResponse, error) {
	ext := path.Ext(original)
	if ext == "" {
		ext = ".png"
	}
	filename := fmt.Sprintf("avatar_%d_%d%s", userID, time.Now().Unix(), ext)

	if err := s.store.PutJSON(localstore.AvatarKeyPrefix+filename, avatarBlob{
		ContentType: contentType,
		Data:        data,
	}); err != nil {
		return nil, apperror.NewStorageError("failed to store avatar", err)
	}

	users, err := s.loadDirectory()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			name := filename
			users[i].AvatarFilename = &name
			users[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := s.saveDirectory(users); err != nil {
				return nil, err
			}
			break
		}
	}

	return &upstream.AvatarResponse{
		Message:        "Avatar atualizado com sucesso",
		AvatarFilename: filename,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
