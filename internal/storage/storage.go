package storage

import (
	"context"
	"time"

	"github.com/raymondclowe/RememBot/pkg/types"
)

// Store defines the interface for persisting and querying content items
type Store interface {
	// Item operations
	CreateItem(ctx context.Context, params CreateParams) (int64, error)
	GetByID(ctx context.Context, ownerID, itemID int64) (*ContentItem, error)
	Update(ctx context.Context, ownerID, itemID int64, extractedInfo *string, taxonomy *types.Blob) (bool, error)
	Delete(ctx context.Context, ownerID, itemID int64) (bool, error)
	FindByHash(ctx context.Context, ownerID int64, hash string, limit int) ([]*ContentItem, error)

	// Listing and search primitives
	List(ctx context.Context, ownerID int64, page Page) ([]*ContentItem, int, error)
	SearchRanked(ctx context.Context, ownerID int64, query string, page Page) ([]*ContentItem, int, error)
	SearchSubstring(ctx context.Context, ownerID int64, query string, page Page) ([]*ContentItem, int, error)
	FTSEnabled() bool

	// Processing state transitions
	PendingItems(ctx context.Context, limit, maxAttempts int) ([]*ContentItem, error)
	MarkProcessing(ctx context.Context, itemID int64) (bool, error)
	MarkComplete(ctx context.Context, itemID int64, outcome CompletedParse) error
	MarkError(ctx context.Context, itemID int64, message string) error
	MarkRetry(ctx context.Context, itemID int64) error
	ResetFailed(ctx context.Context, maxAttempts int) (int, error)

	// Statistics
	ParseStats(ctx context.Context, maxAttempts int) (ParseStats, error)
	UserStats(ctx context.Context, ownerID int64) (*UserStats, error)

	// Activity trail
	LogActivity(ctx context.Context, rec ActivityRecord) error
	RecentActivity(ctx context.Context, ownerID int64, days, limit int) ([]*ActivityRecord, error)

	// Web tokens
	CreateWebToken(ctx context.Context, ownerID int64, ttl time.Duration) (*WebToken, error)
	ValidateWebToken(ctx context.Context, token string, ownerID int64) (bool, error)

	Close() error
}

// ContentItem is the durable unit of knowledge
type ContentItem struct {
	ID               int64
	OwnerID          int64
	OriginalShare    string
	Metadata         types.Blob
	ExtractedInfo    *string // Nullable until processed
	Taxonomy         types.Blob
	ContentType      types.ContentType
	SourcePlatform   *string // Nullable
	ProcessingTimeMs *float64
	ContentHash      *string
	Version          int64
	ParseStatus      types.ParseStatus
	ParseError       *string
	ParseAttempts    int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateParams holds the inputs for CreateItem. ParseStatus defaults to
// pending; synchronous callers that already extracted text pass complete.
type CreateParams struct {
	OwnerID          int64
	OriginalShare    string
	ContentType      types.ContentType
	Metadata         types.Blob
	ExtractedInfo    *string
	Taxonomy         types.Blob
	ProcessingTimeMs *float64
	ParseStatus      types.ParseStatus
}

// CompletedParse carries the results of a successful parse. Nil fields
// leave the stored value untouched.
type CompletedParse struct {
	ExtractedInfo    *string
	Metadata         *types.Blob
	Taxonomy         *types.Blob
	ProcessingTimeMs *float64
}

// Page bounds a listing or search, with optional classification filters.
type Page struct {
	ContentType    string
	SourcePlatform string
	Limit          int
	Offset         int
}

// ActivityRecord is one entry in the append-only audit trail
type ActivityRecord struct {
	ID          int64
	OwnerID     int64
	Action      types.ActionKind
	ItemID      *int64
	Query       *string
	ResultCount *int
	CreatedAt   time.Time
}

// WebToken is a short-lived capability for the web viewing surface
type WebToken struct {
	ID        int64
	OwnerID   int64
	Token     string
	Expiry    int64 // Epoch seconds
	CreatedAt time.Time
	UsedAt    *time.Time
}

// ParseStats counts items by processing state. Failed is derived: items at or
// past the attempt cap that still sit in error or pending.
type ParseStats struct {
	Pending    int
	Processing int
	Complete   int
	Error      int
	Failed     int
}

// UserStats summarizes one owner's stored content and recent activity
type UserStats struct {
	TotalItems          int
	ItemsByType         map[string]int
	ItemsByPlatform     map[string]int
	RecentItems         int // Created in the last 7 days
	RecentSearches      int // Search actions in the last 7 days
	AvgProcessingTimeMs *float64
}
