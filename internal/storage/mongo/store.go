package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	usersCollection     = "users"
	campaignsCollection = "campaigns"
	offersCollection    = "offers"
)

var withoutPassword = bson.M{"password_hash": 0}

// Store provides MongoDB-backed persistence.
type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	campaigns *mongo.Collection
	offers    *mongo.Collection
}

// NewStore connects, pings and ensures indexes on database.
func NewStore(ctx context.Context, url, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(url).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		campaigns: db.Collection(campaignsCollection),
		offers:    db.Collection(offersCollection),
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	if _, err := s.campaigns.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "brand_id", Value: 1}}}); err != nil {
		return fmt.Errorf("create campaign indexes: %w", err)
	}
	if _, err := s.offers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "campaign_id", Value: 1}}},
		{Keys: bson.D{{Key: "influencer_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create offer indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CreateUser inserts a user document.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Email = models.NormalizeEmail(user.Email)
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return models.User{}, mapError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "email", Value: 1}})
	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(withoutPassword)).Decode(&user)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&user); err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	set := bson.M{"updated_at": now()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = models.NormalizeEmail(*patch.Email)
	}
	if patch.PasswordHash != nil {
		set["password_hash"] = *patch.PasswordHash
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.ProfileImage != nil {
		set["profile_image"] = *patch.ProfileImage
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.PhoneNumber != nil {
		set["phone_number"] = *patch.PhoneNumber
	}
	if patch.EmailVerified != nil {
		set["email_verified"] = *patch.EmailVerified
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	if patch.Metadata != nil {
		set["metadata"] = patch.Metadata
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	var user models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

// DeleteUser removes a user with the campaigns and offers that reference them.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	var owned []models.Campaign
	cur, err := s.campaigns.Find(ctx, bson.M{"brand_id": id}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return fmt.Errorf("find owned campaigns: %w", err)
	}
	if err := cur.All(ctx, &owned); err != nil {
		return fmt.Errorf("decode owned campaigns: %w", err)
	}
	campaignIDs := make([]string, 0, len(owned))
	for _, c := range owned {
		campaignIDs = append(campaignIDs, c.ID)
	}

	if _, err := s.offers.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"influencer_id": id},
		bson.M{"campaign_id": bson.M{"$in": campaignIDs}},
	}}); err != nil {
		return fmt.Errorf("delete user offers: %w", err)
	}
	if _, err := s.campaigns.DeleteMany(ctx, bson.M{"brand_id": id}); err != nil {
		return fmt.Errorf("delete user campaigns: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllUsers(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{s.offers, s.campaigns, s.users} {
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) TouchLogin(ctx context.Context, id string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": now()}})
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode role counts: %w", err)
	}
	counts := make(map[models.Role]int64, len(rows))
	for _, row := range rows {
		counts[models.Role(row.Role)] = row.Count
	}
	return counts, nil
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return storage.ErrAlreadyExists
	}
	return err
}
