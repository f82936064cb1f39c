package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/linkpress"
	"github.com/eringen/linkpress/store"
)

// options is shared by every command.
type options struct {
	configFile string
	v          *viper.Viper
	logger     *log.Logger
}

func newRootCommand() *cobra.Command {
	o := &options{v: viper.New(), logger: log.New("linkpress")}

	cmd := &cobra.Command{
		Use:           "linkpress",
		Short:         "A blog of links to articles published elsewhere.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "Config file (default ./linkpress.yaml when present).")
	cmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres.")
	cmd.PersistentFlags().String("db-dsn", "", "SQLite path or PostgreSQL connection string.")
	_ = o.v.BindPFlag("database.driver", cmd.PersistentFlags().Lookup("db-driver"))
	_ = o.v.BindPFlag("database.dsn", cmd.PersistentFlags().Lookup("db-dsn"))

	cmd.AddCommand(
		newServeCommand(o),
		newSeedCommand(o),
		newPostsCommand(o),
		newVersionCommand(),
	)
	return cmd
}

var configDefaults = map[string]any{
	"site.name":         "Blog",
	"site.url":          "http://localhost:3000",
	"site.description":  "",
	"site.author":       "",
	"addr":              ":3000",
	"database.driver":   store.DriverSQLite,
	"database.dsn":      "",
	"admin.user":        "admin",
	"admin.password":    "",
	"session.secret":    "",
	"session.secure":    false,
	"jwt.secret":        "",
	"jwt.ttl":           "12h",
	"nats.url":          "",
	"uploads.dir":       "public/uploads",
	"s3.bucket":         "",
	"s3.region":         "us-east-1",
	"s3.endpoint":       "",
	"s3.base_url":       "",
	"preview.timeout":   "10s",
	"preview.max_bytes": 2 << 20,
	"log.level":         "info",
}

// load reads defaults, the optional config file and LINKPRESS_* variables,
// e.g. LINKPRESS_ADMIN_PASSWORD for admin.password.
func (o *options) load() error {
	v := o.v
	for k, val := range configDefaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("LINKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
	} else {
		v.SetConfigName("linkpress")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	o.logger.SetLevel(parseLevel(v.GetString("log.level")))
	return nil
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func (o *options) siteConfig() linkpress.SiteConfig {
	v := o.v
	return linkpress.SiteConfig{
		Name:            v.GetString("site.name"),
		URL:             v.GetString("site.url"),
		Description:     v.GetString("site.description"),
		Author:          v.GetString("site.author"),
		Addr:            v.GetString("addr"),
		DatabaseDriver:  v.GetString("database.driver"),
		DatabaseDSN:     v.GetString("database.dsn"),
		AdminUser:       v.GetString("admin.user"),
		AdminPassword:   v.GetString("admin.password"),
		SessionSecret:   v.GetString("session.secret"),
		CookieSecure:    v.GetBool("session.secure"),
		JWTSecret:       v.GetString("jwt.secret"),
		TokenTTL:        v.GetDuration("jwt.ttl"),
		NATSURL:         v.GetString("nats.url"),
		UploadDir:       v.GetString("uploads.dir"),
		S3Bucket:        v.GetString("s3.bucket"),
		S3Region:        v.GetString("s3.region"),
		S3Endpoint:      v.GetString("s3.endpoint"),
		S3BaseURL:       v.GetString("s3.base_url"),
		PreviewTimeout:  v.GetDuration("preview.timeout"),
		PreviewMaxBytes: v.GetInt64("preview.max_bytes"),
	}
}

// openStore opens the configured database for the data commands.
func (o *options) openStore(ctx context.Context) (*store.SQL, error) {
	cfg := o.siteConfig()
	dsn := cfg.DatabaseDSN
	if dsn == "" && cfg.DatabaseDriver == store.DriverSQLite {
		dsn = "data/linkpress.db"
	}
	return store.Open(ctx, store.Config{Driver: cfg.DatabaseDriver, DSN: dsn})
}
