package ideaflow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sentEvent struct {
	Event      notify.Event
	Recipients []primitive.ObjectID
}

// recordingNotifier captures Notify calls, applying the same recipient
// filtering as the real dispatcher.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event, recipients []primitive.ObjectID) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{Event: ev, Recipients: notify.Recipients(ev.ActorID, recipients...)})
	return nil, nil
}

func (n *recordingNotifier) events() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.sent...)
}

type published struct {
	Channel string
	Event   realtime.Event
}

type recordingPublisher struct {
	mu  sync.Mutex
	out []published
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, ev realtime.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, published{Channel: channel, Event: ev})
	return 1
}

type harness struct {
	db       *mongo.Database
	svc      *ideaflow.Service
	notifier *recordingNotifier
	pub      *recordingPublisher
	fixtures *testutil.Fixtures
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	n := &recordingNotifier{}
	p := &recordingPublisher{}
	return &harness{
		db:       db,
		svc:      ideaflow.New(db, n, p, nil, nil),
		notifier: n,
		pub:      p,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func actorOf(u models.User) authz.Actor {
	return authz.Actor{ID: u.ID, Name: u.FullName, Role: u.Role}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
