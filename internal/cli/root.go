// Package cli implements classforgectl, the operator command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// opener returns a database and a function that releases it.
type opener func(ctx context.Context) (*mongo.Database, func(), error)

type rootOptions struct {
	envFile  string
	mongoURI string
	database string
	open     opener
}

// NewRootCommand builds classforgectl.
func NewRootCommand() *cobra.Command {
	o := &rootOptions{}
	o.open = o.dial
	return newRoot(o)
}

func newRoot(o *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "classforgectl",
		Short: "ClassForge operator tools",
		Long: `classforgectl manages a ClassForge database directly:
index reconciliation, user provisioning, and merge integrity checks.

Connection settings come from flags, then CLASSFORGE_MONGO_URI and
CLASSFORGE_MONGO_DATABASE (a .env file is loaded when present).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.loadEnv(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "dotenv file to load (missing default is ignored)")
	rootCmd.PersistentFlags().StringVar(&o.mongoURI, "mongo-uri", "", "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&o.database, "db", "", "MongoDB database name")

	rootCmd.AddCommand(newIndexesCmd(o))
	rootCmd.AddCommand(newUserCmd(o))
	rootCmd.AddCommand(newVerifyMergesCmd(o))

	return rootCmd
}

// loadEnv fills unset flags from the environment after loading the env file.
func (o *rootOptions) loadEnv(cmd *cobra.Command) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			explicit := cmd.Flags().Changed("env-file")
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", o.envFile, err)
			}
		}
	}
	if o.mongoURI == "" {
		o.mongoURI = envOr("CLASSFORGE_MONGO_URI", "mongodb://localhost:27017")
	}
	if o.database == "" {
		o.database = envOr("CLASSFORGE_MONGO_DATABASE", "classforge")
	}
	return nil
}

func (o *rootOptions) dial(ctx context.Context) (*mongo.Database, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(o.mongoURI).SetAppName("classforgectl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping %s: %w", o.mongoURI, err)
	}
	closer := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(o.database), closer, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
