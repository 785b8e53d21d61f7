// internal/app/notify/dispatcher.go
//
// Package notify fans a domain event out to its recipients: one stored
// notification row each, then a best-effort realtime push and email. Only
// the stored row is durable; push and email failures are logged and never
// reach the operation that raised the event.
package notify

import (
	"context"
	"strings"
	"sync"

	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/mailer"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event is one thing worth telling people about.
type Event struct {
	Type    string
	Title   string
	Message string
	IdeaID  *primitive.ObjectID
	GroupID *primitive.ObjectID
	// ActorID is excluded from the recipients. Zero for system events.
	ActorID primitive.ObjectID
}

// Store persists notification rows.
type Store interface {
	InsertMany(ctx context.Context, ns []models.Notification) ([]models.Notification, error)
}

// Directory resolves recipients to names and email addresses.
type Directory interface {
	GetContacts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]userstore.Contact, error)
}

// Config wires a Dispatcher.
type Config struct {
	Store     Store
	Users     Directory
	Publisher realtime.Publisher
	Mailer    mailer.Sender
	// MailEnabled gates the contact lookup and email send.
	MailEnabled bool
	SiteName    string
	BaseURL     string
	Log         *zap.Logger
}

// Dispatcher implements notification fan-out.
type Dispatcher struct {
	cfg Config
	log *zap.Logger
	wg  sync.WaitGroup
}

// New returns a dispatcher. Nil publisher and mailer are replaced by no-ops.
func New(cfg Config) *Dispatcher {
	if cfg.Publisher == nil {
		cfg.Publisher = realtime.NopPublisher{}
	}
	if cfg.Mailer == nil {
		cfg.Mailer = mailer.NopMailer{}
		cfg.MailEnabled = false
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "ClassForge"
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, log: log}
}

// Recipients de-duplicates ids preserving order and drops the actor and
// zero ids.
func Recipients(actor primitive.ObjectID, ids ...primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || id == actor {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Notify stores one notification per distinct recipient and pushes each to
// its user channel. It returns the stored rows. The insert does not follow
// ctx cancellation, so a caller that has already committed its primary write
// still gets its notifications stored.
func (d *Dispatcher) Notify(ctx context.Context, ev Event, recipients []primitive.ObjectID) ([]models.Notification, error) {
	ids := Recipients(ev.ActorID, recipients...)
	if len(ids) == 0 {
		return nil, nil
	}

	var actor *primitive.ObjectID
	if !ev.ActorID.IsZero() {
		a := ev.ActorID
		actor = &a
	}
	rows := make([]models.Notification, len(ids))
	for i, id := range ids {
		rows[i] = models.Notification{
			RecipientID: id,
			Type:        ev.Type,
			Title:       ev.Title,
			Message:     ev.Message,
			IdeaID:      ev.IdeaID,
			GroupID:     ev.GroupID,
			ActorID:     actor,
		}
	}

	wctx, cancel := timeouts.Detached(ctx, timeouts.Medium(), d.log, "notify insert")
	defer cancel()
	stored, err := d.cfg.Store.InsertMany(wctx, rows)
	if err != nil {
		d.log.Error("notify: store notifications failed",
			zap.String("type", ev.Type),
			zap.Int("recipients", len(ids)),
			zap.Error(err))
		return nil, err
	}

	for _, n := range stored {
		d.cfg.Publisher.Publish(wctx, realtime.UserChannel(n.RecipientID.Hex()), realtime.Event{
			Type: realtime.EventNotification,
			Data: n,
		})
	}

	if d.cfg.MailEnabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.sendEmails(context.WithoutCancel(ctx), ev, ids)
		}()
	}
	return stored, nil
}

// Wait blocks until in-flight emails are sent. Called at shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) sendEmails(ctx context.Context, ev Event, ids []primitive.ObjectID) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), d.log, "notify email")
	defer cancel()

	contacts, err := d.cfg.Users.GetContacts(ctx, ids)
	if err != nil {
		d.log.Warn("notify: contact lookup failed", zap.Error(apperr.Delivery("email", err)))
		return
	}

	link := d.link(ev)
	for _, id := range ids {
		c, ok := contacts[id]
		if !ok || c.Email == "" || c.Status == models.UserDisabled {
			continue
		}
		email := mailer.BuildNotificationEmail(mailer.NotificationEmailData{
			SiteName:      d.cfg.SiteName,
			RecipientName: c.FullName,
			Title:         ev.Title,
			Message:       ev.Message,
			Link:          link,
		})
		email.To = c.Email
		if err := d.cfg.Mailer.Send(email); err != nil {
			d.log.Warn("notify: email failed",
				zap.String("recipient_id", id.Hex()),
				zap.String("type", ev.Type),
				zap.Error(apperr.Delivery("email", err)))
		}
	}
}

func (d *Dispatcher) link(ev Event) string {
	base := strings.TrimRight(d.cfg.BaseURL, "/")
	if base == "" {
		return ""
	}
	switch {
	case ev.IdeaID != nil:
		return base + "/ideas/" + ev.IdeaID.Hex()
	case ev.GroupID != nil:
		return base + "/groups/" + ev.GroupID.Hex()
	}
	return base + "/notifications"
}
