package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/userhub/user-management/internal/core/domain"
)

const userCollection = "users"

// MongoUserRepository persists accounts in the users collection. Counter
// mutations run as single-document atomic updates, so concurrent failed
// logins cannot lose an increment.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique indexes the account invariants rely on.
// Call once at startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "nickname", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Nickname            string             `bson:"nickname"`
	Email               string             `bson:"email"`
	FirstName           string             `bson:"first_name,omitempty"`
	LastName            string             `bson:"last_name,omitempty"`
	Bio                 string             `bson:"bio,omitempty"`
	ProfilePictureURL   string             `bson:"profile_picture_url,omitempty"`
	PasswordHash        string             `bson:"password_hash"`
	Role                string             `bson:"role"`
	EmailVerified       bool               `bson:"email_verified"`
	IsLocked            bool               `bson:"is_locked"`
	FailedLoginAttempts int                `bson:"failed_login_attempts"`
	LastLoginAt         int64              `bson:"last_login_at,omitempty"`
	CreatedAt           int64              `bson:"created_at"`
	UpdatedAt           int64              `bson:"updated_at"`
}

func toDoc(u *domain.User) mongoUser {
	return mongoUser{
		Nickname:            u.Nickname,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Bio:                 u.Bio,
		ProfilePictureURL:   u.ProfilePictureURL,
		PasswordHash:        u.PasswordHash,
		Role:                string(u.Role),
		EmailVerified:       u.EmailVerified,
		IsLocked:            u.IsLocked,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAt:         timeToUnix(u.LastLoginAt),
		CreatedAt:           u.CreatedAt.Unix(),
		UpdatedAt:           u.UpdatedAt.Unix(),
	}
}

func toDomain(mu mongoUser) *domain.User {
	return &domain.User{
		ID:                  mu.ID.Hex(),
		Nickname:            mu.Nickname,
		Email:               mu.Email,
		FirstName:           mu.FirstName,
		LastName:            mu.LastName,
		Bio:                 mu.Bio,
		ProfilePictureURL:   mu.ProfilePictureURL,
		PasswordHash:        mu.PasswordHash,
		Role:                domain.Role(mu.Role),
		EmailVerified:       mu.EmailVerified,
		IsLocked:            mu.IsLocked,
		FailedLoginAttempts: mu.FailedLoginAttempts,
		LastLoginAt:         unixToTime(mu.LastLoginAt),
		CreatedAt:           unixToTime(mu.CreatedAt),
		UpdatedAt:           unixToTime(mu.UpdatedAt),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.coll.InsertOne(ctx, toDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	return r.findByObjectID(ctx, id)
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return toDomain(mu), nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findByObjectID(ctx, oid)
}

func (r *MongoUserRepository) findByObjectID(ctx context.Context, oid primitive.ObjectID) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomain(mu), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"first_name":          user.FirstName,
		"last_name":           user.LastName,
		"bio":                 user.Bio,
		"profile_picture_url": user.ProfilePictureURL,
		"updated_at":          user.UpdatedAt.Unix(),
	}}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.findByObjectID(ctx, oid)
}

func (r *MongoUserRepository) List(ctx context.Context, limit, offset int64) ([]*domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, toDomain(mu))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// IncrementFailedAttempts bumps the counter and flips is_locked once it
// reaches maxAttempts, in one aggregation-pipeline update. The whole
// read-modify-write is atomic per document.
func (r *MongoUserRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"failed_login_attempts": bson.M{"$add": bson.A{"$failed_login_attempts", 1}},
		}}},
		// Second stage sees the incremented counter.
		{{Key: "$set", Value: bson.M{
			"is_locked": bson.M{"$or": bson.A{
				"$is_locked",
				bson.M{"$gte": bson.A{"$failed_login_attempts", maxAttempts}},
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("increment failed attempts: %w", err)
	}
	return toDomain(mu), nil
}

func (r *MongoUserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"failed_login_attempts": 0,
		"last_login_at":         at.Unix(),
	}}, "record login")
}

func (r *MongoUserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"email_verified": true,
	}}, "mark verified")
}

func (r *MongoUserRepository) Unlock(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"is_locked":             false,
		"failed_login_attempts": 0,
	}}, "unlock user")
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, update bson.M, op string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
