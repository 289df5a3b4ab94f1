package store

import (
	"context"
	"time"

	"tours-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Users is the user collection; the default scope hides soft-deleted
// accounts from every standard read.
type Users struct {
	*Collection[models.User]
	coll *mongo.Collection
}

func NewUsers(coll *mongo.Collection) *Users {
	return &Users{
		Collection: NewCollection[models.User](coll, bson.M{"active": bson.M{"$ne": false}}),
		coll:       coll,
	}
}

// ByEmail looks a user up for login. Inactive users are included so the
// caller can distinguish a deactivated account from a missing one.
func (u *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByIDs loads the given users in default scope, e.g. a tour's guides.
func (u *Users) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := u.coll.Find(ctx, u.ApplyScope(bson.M{"_id": bson.M{"$in": ids}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetResetToken stores the hashed reset token with its expiry.
func (u *Users) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	_, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": expires,
	}})
	return err
}

// ClearResetToken drops the stored token, e.g. when mail delivery fails.
func (u *Users) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{
		"passwordResetToken":   "",
		"passwordResetExpires": "",
	}})
	return err
}

// ByResetToken finds the user holding an unexpired token hash.
func (u *Users) ByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := u.coll.FindOne(ctx, bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": now},
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword stores the new hash, stamps passwordChangedAt slightly in
// the past so a token minted in the same second still post-dates the change,
// and invalidates any outstanding reset token.
func (u *Users) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, now time.Time) error {
	_, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password":          passwordHash,
			"passwordChangedAt": now.Add(-time.Second),
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	})
	return err
}

// Deactivate soft-deletes the account; default-scoped reads stop seeing it.
func (u *Users) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": false}})
	return err
}
