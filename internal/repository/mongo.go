package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	usersCollection      = "users"
	complaintsCollection = "complaints"
	countersCollection   = "counters"
	activityCollection   = "activity_logs"
)

// MongoStore implements Store on a MongoDB database
type MongoStore struct {
	client     *mongo.Client
	users      *mongo.Collection
	complaints *mongo.Collection
	counters   *mongo.Collection
	activity   *mongo.Collection
}

// NewMongoStore wraps a connected client and database
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:     client,
		users:      db.Collection(usersCollection),
		complaints: db.Collection(complaintsCollection),
		counters:   db.Collection(countersCollection),
		activity:   db.Collection(activityCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	_, err = s.complaints.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "studentId", Value: 1}}},
		{Keys: bson.D{{Key: "block", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("complaint indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type userDoc struct {
	ID            string    `bson:"_id"`
	ExternalID    string    `bson:"id"`
	Name          string    `bson:"name"`
	Email         string    `bson:"email"`
	PasswordHash  string    `bson:"password"`
	Role          string    `bson:"role"`
	Status        string    `bson:"status"`
	Avatar        string    `bson:"avatar,omitempty"`
	Block         string    `bson:"block,omitempty"`
	Room          string    `bson:"room,omitempty"`
	Phone         string    `bson:"phone,omitempty"`
	ParentPhone   string    `bson:"parentPhone,omitempty"`
	CurrentStatus string    `bson:"currentStatus,omitempty"`
	IsOnDuty      bool      `bson:"isOnDuty"`
	LastActive    string    `bson:"lastActive,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func toUserDoc(u *models.User) userDoc {
	d := userDoc{
		ID: u.ID, ExternalID: u.ExternalID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		Role: string(u.Role), Status: u.Status, Avatar: u.Avatar, Block: u.Block,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
	if sp := u.StudentProfile; sp != nil {
		d.Room, d.Phone, d.ParentPhone, d.CurrentStatus = sp.Room, sp.Phone, sp.ParentPhone, sp.CurrentStatus
	}
	if wp := u.WardenProfile; wp != nil {
		d.IsOnDuty, d.LastActive = wp.IsOnDuty, wp.LastActive
	}
	return d
}

func (d userDoc) toModel() *models.User {
	u := &models.User{
		ID: d.ID, ExternalID: d.ExternalID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: models.Role(d.Role), Status: d.Status, Avatar: d.Avatar, Block: d.Block,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	attachProfile(u,
		models.StudentProfile{Room: d.Room, Phone: d.Phone, ParentPhone: d.ParentPhone, CurrentStatus: d.CurrentStatus},
		models.WardenProfile{IsOnDuty: d.IsOnDuty, LastActive: d.LastActive},
	)
	return u
}

type complaintDoc struct {
	ExternalID  string                 `bson:"id"`
	Title       string                 `bson:"title"`
	Description string                 `bson:"description"`
	Category    string                 `bson:"category"`
	Priority    string                 `bson:"priority"`
	Status      string                 `bson:"status"`
	Date        string                 `bson:"date"`
	StudentID   string                 `bson:"studentId"`
	StudentName string                 `bson:"studentName"`
	Room        string                 `bson:"room"`
	Block       string                 `bson:"block"`
	Upvotes     int                    `bson:"upvotes"`
	Images      []string               `bson:"images"`
	Videos      []string               `bson:"videos"`
	Timeline    []models.TimelineEntry `bson:"timeline"`
	CreatedAt   time.Time              `bson:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt"`
}

func toComplaintDoc(c *models.Complaint) complaintDoc {
	return complaintDoc{
		ExternalID: c.ID, Title: c.Title, Description: c.Description, Category: c.Category,
		Priority: string(c.Priority), Status: string(c.Status), Date: c.Date, StudentID: c.StudentID,
		StudentName: c.StudentName, Room: c.Room, Block: c.Block, Upvotes: c.Upvotes,
		Images: nonNil(c.Images), Videos: nonNil(c.Videos), Timeline: c.Timeline,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (d complaintDoc) toModel() *models.Complaint {
	return &models.Complaint{
		ID: d.ExternalID, Title: d.Title, Description: d.Description, Category: d.Category,
		Priority: models.Priority(d.Priority), Status: models.Status(d.Status), Date: d.Date,
		StudentID: d.StudentID, StudentName: d.StudentName, Room: d.Room, Block: d.Block,
		Upvotes: d.Upvotes, Images: d.Images, Videos: d.Videos, Timeline: d.Timeline,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// NextSequence atomically increments the named counter document, creating it on first use
func (s *MongoStore) NextSequence(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return counter.Value, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := s.users.InsertOne(ctx, toUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"id": externalID})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var d userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return d.toModel(), nil
}

func (s *MongoStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = string(role)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "id", Value: 1}})

	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, *d.toModel())
	}
	return users, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	d := toUserDoc(u)
	update := bson.M{"$set": bson.M{
		"name": d.Name, "status": d.Status, "avatar": d.Avatar, "block": d.Block, "room": d.Room,
		"phone": d.Phone, "parentPhone": d.ParentPhone, "currentStatus": d.CurrentStatus,
		"isOnDuty": d.IsOnDuty, "lastActive": d.LastActive, "updatedAt": d.UpdatedAt,
	}}

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, externalID string) (bool, error) {
	res, err := s.users.DeleteOne(ctx, bson.M{"id": externalID})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	if _, err := s.complaints.InsertOne(ctx, toComplaintDoc(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *MongoStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var d complaintDoc
	if err := s.complaints.FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return d.toModel(), nil
}

func (s *MongoStore) ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["studentId"] = f.StudentID
	}
	if f.Block != "" {
		filter["block"] = f.Block
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Priority != "" {
		filter["priority"] = string(f.Priority)
	}
	if f.DateBefore != "" {
		filter["date"] = bson.M{"$lt": f.DateBefore}
	}
	if len(f.Status) > 0 {
		statuses := make([]string, len(f.Status))
		for i, st := range f.Status {
			statuses[i] = string(st)
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}})

	cur, err := s.complaints.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	var docs []complaintDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode complaints: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(docs))
	for _, d := range docs {
		complaints = append(complaints, *d.toModel())
	}
	return complaints, nil
}

// AppendTimeline pushes the entry and sets the status in a single
// findOneAndUpdate guarded by the expected status.
func (s *MongoStore) AppendTimeline(ctx context.Context, id string, expected models.Status, entry models.TimelineEntry) (*models.Complaint, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set":  bson.M{"status": string(entry.Status), "updatedAt": time.Now().UTC()},
		"$push": bson.M{"timeline": entry},
	}

	var d complaintDoc
	err := s.complaints.FindOneAndUpdate(ctx, bson.M{"id": id, "status": string(expected)}, update, opts).Decode(&d)
	if err == nil {
		return d.toModel(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("append timeline: %w", err)
	}

	n, err := s.complaints.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("check complaint: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrStatusMismatch
}

func (s *MongoStore) IncrementUpvotes(ctx context.Context, id string) (*models.Complaint, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"upvotes": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	var d complaintDoc
	if err := s.complaints.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment upvotes: %w", err)
	}
	return d.toModel(), nil
}

type activityDoc struct {
	ID          string    `bson:"_id"`
	ActorID     string    `bson:"actorId"`
	ActorRole   string    `bson:"actorRole"`
	Action      string    `bson:"action"`
	Target      string    `bson:"target"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (s *MongoStore) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.activity.InsertOne(ctx, activityDoc{
		ID: entry.ID, ActorID: entry.ActorID, ActorRole: entry.ActorRole, Action: entry.Action,
		Target: entry.Target, Description: entry.Description, CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (s *MongoStore) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))

	cur, err := s.activity.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	logs := make([]models.ActivityLog, 0, len(docs))
	for _, d := range docs {
		logs = append(logs, models.ActivityLog{
			ID: d.ID, ActorID: d.ActorID, ActorRole: d.ActorRole, Action: d.Action,
			Target: d.Target, Description: d.Description, CreatedAt: d.CreatedAt,
		})
	}
	return logs, nil
}
