package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/sizemap/internal/server"
)

// serveFlags are the serve flags that override the [server], [store] and
// [cache] config sections when set.
type serveFlags struct {
	addr      string
	store     string
	storeDir  string
	mongoURI  string
	cache     string
	redisAddr string
	maxUpload int
	treeCache int
	noCache   bool
}

// serveCommand creates the serve command for the HTTP viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive treemap viewer",
		Long: `Serve the interactive treemap viewer over HTTP.

Reports are uploaded through the index page or POST /api/reports and kept in
the configured store. Each report gets a viewer at /reports/{id} whose URL
fragment carries the focused path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd.Flags(), c.Config)
			if err := c.Config.validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), f.noCache)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", server.DefaultAddr, "listen address")
	fl.StringVar(&f.store, "store", backendFile, "report store: file, memory or mongo")
	fl.StringVar(&f.storeDir, "store-dir", "", "directory of the file store")
	fl.StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB connection URI for the mongo store")
	fl.StringVar(&f.cache, "cache", backendFile, "cache backend: file, redis or none")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for the redis cache")
	fl.IntVar(&f.maxUpload, "max-upload-mb", server.DefaultMaxUpload>>20, "largest accepted report in MiB")
	fl.IntVar(&f.treeCache, "tree-cache", server.DefaultTreeCacheSize, "parsed reports kept in memory")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	return cmd
}

func (f serveFlags) apply(fl *pflag.FlagSet, cfg *Config) {
	if fl.Changed("addr") {
		cfg.Server.Addr = f.addr
	}
	if fl.Changed("store") {
		cfg.Store.Backend = f.store
	}
	if fl.Changed("store-dir") {
		cfg.Store.Dir = f.storeDir
	}
	if fl.Changed("mongo-uri") {
		cfg.Store.MongoURI = f.mongoURI
	}
	if fl.Changed("cache") {
		cfg.Cache.Backend = f.cache
	}
	if fl.Changed("redis-addr") {
		cfg.Cache.RedisAddr = f.redisAddr
	}
	if fl.Changed("max-upload-mb") {
		cfg.Server.MaxUploadMB = f.maxUpload
	}
	if fl.Changed("tree-cache") {
		cfg.Server.TreeCacheSize = f.treeCache
	}
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	cfg, err := c.serverConfig()
	if err != nil {
		return err
	}
	srv := server.New(cfg, st, runner, loggerFromContext(ctx).With("component", "server"))

	printSuccess("Serving on %s", StyleLink.Render(listenURL(cfg.Addr)))
	printDetail("store: %s, cache: %s", c.Config.Store.Backend, c.cacheBackend(noCache))
	return srv.Run(ctx)
}

func (c *CLI) serverConfig() (server.Config, error) {
	timeout, err := c.Config.requestTimeout()
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:           c.Config.Server.Addr,
		RequestTimeout: timeout,
		MaxUpload:      int64(c.Config.Server.MaxUploadMB) << 20,
		TreeCacheSize:  c.Config.Server.TreeCacheSize,
	}, nil
}

func (c *CLI) cacheBackend(noCache bool) string {
	if noCache {
		return backendNone
	}
	return c.Config.Cache.Backend
}

// listenURL turns a listen address into a browsable URL.
func listenURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
