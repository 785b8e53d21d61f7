// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup and by `classforgectl indexes`. Each ensure*
function is idempotent. Errors are aggregated so every problem is visible and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"ideas", ensureIdeas},
		{"comments", ensureComments},
		{"notifications", ensureNotifications},
		{"groups", ensureGroups},
		{"group_memberships", ensureGroupMemberships},
		{"group_messages", ensureGroupMessages},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_loginidci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status_fullnameci_id"),
		},
	})
}

func ensureIdeas(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("ideas"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_ideas_status_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_ideas_created"),
		},
		{
			Keys:    bson.D{{Key: "submitted_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_ideas_submittedby_created"),
		},
		{
			Keys:    bson.D{{Key: "submitted_by_multiple", Value: 1}},
			Options: options.Index().SetName("idx_ideas_submittedbymultiple"),
		},
		{
			Keys:    bson.D{{Key: "merged_into", Value: 1}},
			Options: options.Index().SetName("idx_ideas_mergedinto"),
		},
		{
			Keys:    bson.D{{Key: "domain", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_ideas_domain_created"),
		},
	})
}

func ensureComments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("comments"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idea_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_comments_idea_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_recipient_read_created"),
		},
		{
			// retention sweep: read rows older than the cutoff
			Keys:    bson.D{{Key: "is_read", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_notifications_read_created"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_code", Value: 1}},
			Options: options.Index().SetName("uniq_groups_code").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_nameci_id"),
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_gm_group_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_gm_user_created"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_role"),
		},
	})
}

func ensureGroupMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_messages"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_gmsg_group_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_timestamp"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

// Best-effort duplicate-detector (works across vendors).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// desired describes one index we want, flattened out of mongo.IndexModel.
type desired struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = boolVal(m.Options.Unique)
	}
	return d
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, describe(m)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, d desired) error {
	start := time.Now()
	log := zap.L().With(
		zap.String("collection", coll.Name()),
		zap.String("name", d.name),
		zap.String("keys", d.sig),
		zap.Bool("unique", d.unique))
	log.Info("ensuring index")

	if ex, ok := listExisting(ctx, coll)[d.sig]; ok {
		if boolVal(ex.Unique) == d.unique && (d.name == "" || ex.Name == d.name) {
			log.Info("reusing existing index", zap.String("took", time.Since(start).String()))
			return nil
		}
		// Name or uniqueness differs: drop & recreate with the desired shape.
		if err := recreate(ctx, coll, ex.Name, d); err != nil {
			log.Warn("index recreate failed", zap.String("existing", ex.Name), zap.Error(err))
			return err
		}
		log.Info("index dropped and recreated", zap.String("took", time.Since(start).String()))
		return nil
	}

	created, err := coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.String("took", time.Since(start).String()))
		return nil
	}

	if isOptionsConflictErr(err) {
		// Same keys exist under another name; reconcile against the fresh list.
		if ex, ok := listExisting(ctx, coll)[d.sig]; ok {
			if boolVal(ex.Unique) == d.unique {
				log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
				return nil
			}
			if rerr := recreate(ctx, coll, ex.Name, d); rerr != nil {
				return rerr
			}
			log.Info("index dropped and recreated (post-conflict)")
			return nil
		}
	}

	log.Warn("index ensure failed", zap.String("took", time.Since(start).String()), zap.Error(err))
	return createErr(coll, d, err)
}

func recreate(ctx context.Context, coll *mongo.Collection, existingName string, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, existingName); err != nil {
		return fmt.Errorf("%s(%s): drop failed: %w", coll.Name(), d.name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		return createErr(coll, d, err)
	}
	return nil
}

func createErr(coll *mongo.Collection, d desired, err error) error {
	if d.unique && isDuplicateKeyErr(err) {
		helper := ""
		if coll.Name() == "groups" {
			helper = " (duplicate group codes present; regenerate them before retrying)"
		}
		if coll.Name() == "users" {
			helper = " (duplicate login ids present)"
		}
		return fmt.Errorf("%s(%s): cannot create unique index%s", coll.Name(), d.name, helper)
	}
	return fmt.Errorf("%s(%s): %w", coll.Name(), d.name, err)
}
