// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/classforge/internal/app/store/audit"
	"github.com/dalemusser/classforge/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for one category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds per-category audit logging destinations.
type Config struct {
	Ideas      string
	Moderation string
	Groups     string
	Auth       string
}

// Uniform applies one destination to every category. Unknown values fall
// back to "all".
func Uniform(setting string) Config {
	s := strings.ToLower(strings.TrimSpace(setting))
	switch s {
	case All, DB, Log, Off:
	default:
		s = All
	}
	return Config{Ideas: s, Moderation: s, Groups: s, Auth: s}
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryIdea:
		s = l.config.Ideas
	case audit.CategoryModeration:
		s = l.config.Moderation
	case audit.CategoryGroup:
		s = l.config.Groups
	case audit.CategoryAuth:
		s = l.config.Auth
	}
	if s == "" {
		return All
	}
	return s
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.IdeaID != nil {
		fields = append(fields, zap.String("idea_id", event.IdeaID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so services can run without auditing in tests.
// A failed store write is logged and never returned: auditing does not fail
// the operation being audited.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

// --- Idea Events ---

// IdeaSubmitted logs a new submission.
func (l *Logger) IdeaSubmitted(ctx context.Context, actorID, ideaID primitive.ObjectID, domain string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeaSubmitted,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
		Details:   map[string]string{"domain": domain},
	})
}

// IdeaReviewed logs a review decision.
func (l *Logger) IdeaReviewed(ctx context.Context, actorID, ideaID primitive.ObjectID, status string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeaReviewed,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
		Details:   map[string]string{"status": status},
	})
}

// IdeaDeleted logs a deletion and how many comments went with it.
func (l *Logger) IdeaDeleted(ctx context.Context, actorID, ideaID primitive.ObjectID, status string, commentsRemoved int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeaDeleted,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
		Details: map[string]string{
			"status":           status,
			"comments_removed": strconv.FormatInt(commentsRemoved, 10),
		},
	})
}

// IdeasMerged logs a committed merge.
func (l *Logger) IdeasMerged(ctx context.Context, actorID, resultID primitive.ObjectID, sources []primitive.ObjectID, authors int) {
	hexes := make([]string, 0, len(sources))
	for _, s := range sources {
		hexes = append(hexes, s.Hex())
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeasMerged,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(resultID),
		Success:   true,
		Details: map[string]string{
			"sources": strings.Join(hexes, ","),
			"authors": strconv.Itoa(authors),
		},
	})
}

// MergeRolledBack logs a merge that failed part-way and was undone.
func (l *Logger) MergeRolledBack(ctx context.Context, actorID, resultID primitive.ObjectID, reason string, restored int) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryIdea,
		EventType:     audit.EventMergeRolledBack,
		ActorID:       idPtr(actorID),
		IdeaID:        idPtr(resultID),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"sources_restored": strconv.Itoa(restored)},
	})
}

// MentorInterest logs a teacher showing or withdrawing interest.
func (l *Logger) MentorInterest(ctx context.Context, actorID, ideaID primitive.ObjectID, interested bool) {
	et := audit.EventMentorInterest
	if !interested {
		et = audit.EventMentorWithdrawn
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: et,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
	})
}

// MeetingShared logs a meeting link shared on an idea.
func (l *Logger) MeetingShared(ctx context.Context, actorID, ideaID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventMeetingShared,
		ActorID:   idPtr(actorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
	})
}

// --- Moderation Events ---

// CommentRemoved logs a comment deleted by someone other than its author.
func (l *Logger) CommentRemoved(ctx context.Context, actorID, ideaID, commentID, authorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryModeration,
		EventType: audit.EventCommentRemoved,
		ActorID:   idPtr(actorID),
		UserID:    idPtr(authorID),
		IdeaID:    idPtr(ideaID),
		Success:   true,
		Details:   map[string]string{"comment_id": commentID.Hex()},
	})
}

// --- Group Events ---

// GroupCreated logs a new chat group.
func (l *Logger) GroupCreated(ctx context.Context, actorID, groupID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventGroupCreated,
		ActorID:   idPtr(actorID),
		GroupID:   idPtr(groupID),
		Success:   true,
		Details:   map[string]string{"name": name},
	})
}

// MemberJoined logs a user joining by code.
func (l *Logger) MemberJoined(ctx context.Context, actorID, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventMemberJoined,
		ActorID:   idPtr(actorID),
		GroupID:   idPtr(groupID),
		Success:   true,
	})
}

// MemberInvited logs a group admin adding a user.
func (l *Logger) MemberInvited(ctx context.Context, actorID, groupID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventMemberInvited,
		ActorID:   idPtr(actorID),
		UserID:    idPtr(userID),
		GroupID:   idPtr(groupID),
		Success:   true,
	})
}

// MemberLeft logs a user leaving a group.
func (l *Logger) MemberLeft(ctx context.Context, actorID, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventMemberLeft,
		ActorID:   idPtr(actorID),
		GroupID:   idPtr(groupID),
		Success:   true,
	})
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   idPtr(userID),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"login_id": loginID},
	})
}

// LoginFailed logs a rejected sign-in.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, attemptedLoginID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_login_id": attemptedLoginID},
	})
}

// Logout logs a sign-out. userIDStr may be empty or malformed when the
// session was already gone.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var actor *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		actor = &oid
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   actor,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}
