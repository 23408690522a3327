package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserRepository handles user data access.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(database.CollectionUsers)}
}

// Create inserts a user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	return mapErr(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	u := &model.User{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(u); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// GetByIdentifier retrieves a user whose username or email equals identifier.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": strings.ToLower(identifier)},
	}}

	u := &model.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(u); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// ExistsByUsernameOrEmail reports whether another user already holds username or email.
// exclude skips one user, for edits.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string, exclude bson.ObjectID) (bool, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": strings.ToLower(email)})
	}
	if len(or) == 0 {
		return false, nil
	}

	filter := bson.M{"$or": or}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List retrieves users matching filter with pagination, ordered by username.
func (r *UserRepository) List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"email": re},
			bson.M{"first_name": re},
			bson.M{"last_name": re},
		}
	}
	return findPage[model.User](ctx, r.coll, q, bson.D{{Key: "username", Value: 1}}, limit, offset)
}

// Update applies the non-nil fields of upd and returns the stored user.
func (r *UserRepository) Update(ctx context.Context, id bson.ObjectID, upd model.UserUpdate) (*model.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Email != nil {
		set["email"] = strings.ToLower(*upd.Email)
	}
	if upd.FirstName != nil {
		set["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["last_name"] = *upd.LastName
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}
	if upd.ProfilePicture != nil {
		set["profile_picture"] = *upd.ProfilePicture
	}

	return findOneAndSet[model.User](ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": set})
}
