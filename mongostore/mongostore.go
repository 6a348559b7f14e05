// Package mongostore implements post.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kabuchi/folio/post"
)

// Collection holds blog posts.
const Collection = "posts"

// document is the stored shape of a post.
// Collection: posts
type document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Slug       string             `bson:"slug"`
	Content    string             `bson:"content"`
	Excerpt    string             `bson:"excerpt"`
	CoverImage string             `bson:"coverImage"`
	Location   string             `bson:"location"`
	Category   string             `bson:"category"`
	Tags       []string           `bson:"tags"`
	Date       time.Time          `bson:"date"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func fromPost(p post.Post) document {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return document{
		Title:      p.Title,
		Slug:       p.Slug,
		Content:    p.Content,
		Excerpt:    p.Excerpt,
		CoverImage: p.CoverImage,
		Location:   p.Location,
		Category:   string(p.Category),
		Tags:       tags,
		Date:       p.Date.UTC(),
		CreatedAt:  p.CreatedAt.UTC(),
	}
}

func (d document) toPost() post.Post {
	return post.Post{
		ID:         d.ID.Hex(),
		Title:      d.Title,
		Slug:       d.Slug,
		Content:    d.Content,
		Excerpt:    d.Excerpt,
		CoverImage: d.CoverImage,
		Location:   d.Location,
		Category:   post.Category(d.Category),
		Tags:       d.Tags,
		Date:       d.Date,
		CreatedAt:  d.CreatedAt,
	}
}

// Store is a MongoDB-backed post store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    zerolog.Logger
}

// Open connects to uri, pings the server and ensures indexes on the posts collection.
func Open(ctx context.Context, uri, database string, log zerolog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(Collection),
		log:    log.With().Str("component", "mongostore").Logger(),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

// ListPosts returns posts in category (all posts when empty), newest date first.
func (s *Store) ListPosts(ctx context.Context, category post.Category) ([]post.Post, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = string(category)
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}
	posts := make([]post.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toPost())
	}
	return posts, nil
}

// GetPostBySlug returns the most recently created post matching slug in category.
func (s *Store) GetPostBySlug(ctx context.Context, category post.Category, slug string) (post.Post, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var d document
	err := s.coll.FindOne(ctx, bson.M{"category": string(category), "slug": slug}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return post.Post{}, post.ErrNotFound
	}
	if err != nil {
		return post.Post{}, fmt.Errorf("getting post %q: %w", slug, err)
	}
	return d.toPost(), nil
}

// CreatePost inserts p and returns the new ObjectID as hex.
func (s *Store) CreatePost(ctx context.Context, p post.Post) (string, error) {
	res, err := s.coll.InsertOne(ctx, fromPost(p))
	if err != nil {
		return "", fmt.Errorf("inserting post: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("inserting post: unexpected id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// DeletePost removes the post with id. Ids that are not valid ObjectIDs
// cannot match any document and are treated as already deleted.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		s.log.Warn().Str("id", id).Msg("delete with malformed id")
		return nil
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		s.log.Warn().Str("id", id).Msg("delete matched no post")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
