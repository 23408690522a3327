package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRepository is an in-memory user store with unique username and email.
type UserRepository struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]model.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[bson.ObjectID]model.User)}
}

func (r *UserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	if r.taken(u.Username, u.Email, bson.NilObjectID) {
		return repository.ErrDuplicate
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == identifier || u.Email == strings.ToLower(identifier) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string, exclude bson.ObjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taken(username, strings.ToLower(email), exclude), nil
}

func (r *UserRepository) List(_ context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []model.User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" && !matchesUser(u, search) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, limit, offset), len(out), nil
}

func (r *UserRepository) Update(_ context.Context, id bson.ObjectID, upd model.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	username, email := "", ""
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Email != nil {
		email = strings.ToLower(*upd.Email)
	}
	if r.taken(username, email, id) {
		return nil, repository.ErrDuplicate
	}

	if upd.Username != nil {
		u.Username = username
	}
	if upd.Email != nil {
		u.Email = email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	u.UpdatedAt = time.Now().UTC()

	r.users[id] = u
	return &u, nil
}

// taken must be called with the lock held.
func (r *UserRepository) taken(username, email string, exclude bson.ObjectID) bool {
	for id, u := range r.users {
		if id == exclude {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}

func matchesUser(u model.User, search string) bool {
	for _, f := range []string{u.Username, u.Email, u.FirstName, u.LastName} {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// RefreshTokenRepository is an in-memory refresh token store.
type RefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]model.RefreshToken
}

// NewRefreshTokenRepository creates an empty RefreshTokenRepository.
func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{tokens: make(map[string]model.RefreshToken)}
}

func (r *RefreshTokenRepository) Create(_ context.Context, t *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[t.Token]; ok {
		return repository.ErrDuplicate
	}
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	r.tokens[t.Token] = *t
	return nil
}

func (r *RefreshTokenRepository) GetByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *RefreshTokenRepository) DeleteByUser(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}
